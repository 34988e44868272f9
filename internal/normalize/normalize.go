package normalize

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"GeoTradeAI/internal/domain"
)

// Normalizer canonicalizes raw provider records and collapses near-duplicate
// clusters. Malformed fields degrade to empty strings or a zero timestamp;
// normalization never fails.
type Normalizer struct {
	// TitleSimilarity is the inclusive Jaccard threshold above which two
	// titles are considered the same event.
	TitleSimilarity float64
}

// New builds a Normalizer with the given duplicate-title threshold.
func New(titleSimilarity float64) *Normalizer {
	return &Normalizer{TitleSimilarity: titleSimilarity}
}

// Result separates surviving canonical articles from collapsed duplicates.
// Duplicates are retained only for diagnostics.
type Result struct {
	Articles   []domain.NormalizedArticle
	Duplicates []domain.NormalizedArticle
}

// Normalize canonicalizes every record and merges duplicate clusters, keeping
// the most recently published article of each cluster.
func (n *Normalizer) Normalize(raw []domain.RawArticle) Result {
	articles := make([]domain.NormalizedArticle, 0, len(raw))
	for _, r := range raw {
		articles = append(articles, n.canonicalize(r))
	}

	clusters := clusterDuplicates(articles, n.TitleSimilarity)

	var result Result
	for _, cluster := range clusters {
		canonical := cluster[0]
		for _, idx := range cluster[1:] {
			if articles[idx].PublishedAt.After(articles[canonical].PublishedAt) {
				canonical = idx
			}
		}
		result.Articles = append(result.Articles, articles[canonical])
		for _, idx := range cluster {
			if idx == canonical {
				continue
			}
			dup := articles[idx]
			dup.IsDuplicateOf = articles[canonical].ID
			result.Duplicates = append(result.Duplicates, dup)
		}
	}

	return result
}

func (n *Normalizer) canonicalize(r domain.RawArticle) domain.NormalizedArticle {
	title := collapseWhitespace(stripMarkup(r.Title))
	source := strings.TrimSpace(r.Source)

	return domain.NormalizedArticle{
		ID:          uuid.NewString(),
		Source:      source,
		Title:       title,
		Description: collapseWhitespace(stripMarkup(r.Description)),
		URL:         strings.TrimSpace(r.URL),
		PublishedAt: parseTimestamp(r.PublishedAt),
		Fingerprint: fingerprint(title, source),
	}
}

var whitespaceExpr = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(s, " "))
}

// stripMarkup removes HTML artifacts some providers leak into titles and
// descriptions. Unparseable input is returned trimmed as-is.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return doc.Text()
}

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// parseTimestamp returns a zero time when no known layout matches; callers
// treat zero as "unknown" rather than an error.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// fingerprint derives the canonical duplicate-detection key: sorted unique
// lowercase title tokens plus the lowercase source.
func fingerprint(title, source string) string {
	tokens := titleTokens(title)
	sorted := make([]string, 0, len(tokens))
	for tok := range tokens {
		sorted = append(sorted, tok)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, " ") + "|" + strings.ToLower(source)
}

var tokenExpr = regexp.MustCompile(`[a-z0-9]+`)

func titleTokens(title string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, tok := range tokenExpr.FindAllString(strings.ToLower(title), -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
