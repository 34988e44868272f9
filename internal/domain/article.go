package domain

import "time"

// RawArticle is a provider-supplied news record. It is immutable once
// received; the normalizer never mutates it.
type RawArticle struct {
	Source      string
	Title       string
	Description string
	URL         string
	PublishedAt string
}

// NormalizedArticle is the canonical form of a RawArticle used by the rest of
// the pipeline. A zero PublishedAt means the provider timestamp could not be
// parsed.
type NormalizedArticle struct {
	ID          string
	Source      string
	Title       string
	Description string
	URL         string
	PublishedAt time.Time
	Fingerprint string

	// IsDuplicateOf holds the id of the canonical article when this one was
	// collapsed into a duplicate cluster. Empty for canonical articles.
	IsDuplicateOf string
}

// Text returns the searchable title+description form used by scoring stages.
func (a NormalizedArticle) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + " " + a.Description
}

// RelevanceVerdict scores how close an article is to the assessed
// (product, country) query on a 0-10 scale.
type RelevanceVerdict struct {
	ArticleID  string
	Score      float64
	IsRelevant bool
}

// Query identifies one assessment request.
type Query struct {
	Product  string
	Country  string
	DaysBack int
}
