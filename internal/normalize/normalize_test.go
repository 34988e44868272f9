package normalize

import (
	"testing"
	"time"

	"GeoTradeAI/internal/domain"
)

func TestNormalizeKeepsNewestDuplicate(t *testing.T) {
	t.Parallel()

	n := New(0.85)
	raw := []domain.RawArticle{
		{
			Source:      "Reuters",
			Title:       "Port strike halts Tanger Med operations",
			PublishedAt: "2026-08-27T09:00:00Z",
		},
		{
			Source:      "Reuters",
			Title:       "Port strike halts Tanger Med operations",
			PublishedAt: "2026-08-28T09:00:00Z",
		},
	}

	result := n.Normalize(raw)
	if len(result.Articles) != 1 {
		t.Fatalf("expected 1 canonical article, got %d", len(result.Articles))
	}
	if len(result.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(result.Duplicates))
	}

	want := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	if !result.Articles[0].PublishedAt.Equal(want) {
		t.Fatalf("expected newest article kept, got %v", result.Articles[0].PublishedAt)
	}
	if result.Duplicates[0].IsDuplicateOf != result.Articles[0].ID {
		t.Fatalf("duplicate should reference canonical id")
	}
}

func TestNormalizeTransitiveClusters(t *testing.T) {
	t.Parallel()

	// A~B and B~C by title overlap; all three must merge even though A and C
	// alone might not cross the threshold pairwise with a stricter setting.
	n := New(0.5)
	raw := []domain.RawArticle{
		{Source: "a", Title: "customs tariff change delays imports", PublishedAt: "2026-08-26"},
		{Source: "b", Title: "tariff change delays imports heavily", PublishedAt: "2026-08-27"},
		{Source: "c", Title: "change delays imports heavily today", PublishedAt: "2026-08-28"},
	}

	result := n.Normalize(raw)
	if len(result.Articles) != 1 {
		t.Fatalf("expected transitive merge into 1 article, got %d", len(result.Articles))
	}
	if len(result.Duplicates) != 2 {
		t.Fatalf("expected 2 duplicates, got %d", len(result.Duplicates))
	}
}

func TestNormalizeThresholdSeparatesDistinctEvents(t *testing.T) {
	t.Parallel()

	n := New(0.9)
	raw := []domain.RawArticle{
		{Source: "a", Title: "China export ban on rare earths"},
		{Source: "b", Title: "Morocco customs upgrade PortNet platform"},
	}

	result := n.Normalize(raw)
	if len(result.Articles) != 2 {
		t.Fatalf("expected 2 distinct articles, got %d", len(result.Articles))
	}
}

func TestNormalizeMalformedFieldsDegrade(t *testing.T) {
	t.Parallel()

	n := New(0.85)
	raw := []domain.RawArticle{
		{Source: "", Title: "", Description: "", PublishedAt: "not-a-date"},
	}

	result := n.Normalize(raw)
	if len(result.Articles) != 1 {
		t.Fatalf("expected malformed record to survive, got %d", len(result.Articles))
	}
	if !result.Articles[0].PublishedAt.IsZero() {
		t.Fatalf("expected unknown timestamp to be zero, got %v", result.Articles[0].PublishedAt)
	}
}

func TestNormalizeStripsMarkup(t *testing.T) {
	t.Parallel()

	n := New(0.85)
	raw := []domain.RawArticle{
		{
			Source:      "GNews",
			Title:       "  Strike <b>halts</b> port  ",
			Description: "<p>Dock workers walked out.</p>",
		},
	}

	result := n.Normalize(raw)
	art := result.Articles[0]
	if art.Title != "Strike halts port" {
		t.Fatalf("unexpected title: %q", art.Title)
	}
	if art.Description != "Dock workers walked out." {
		t.Fatalf("unexpected description: %q", art.Description)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	t.Parallel()

	cases := []string{
		"2026-08-28T09:15:00Z",
		"2026-08-28 09:15:00",
		"2026-08-28",
	}
	for _, value := range cases {
		if parseTimestamp(value).IsZero() {
			t.Fatalf("expected %q to parse", value)
		}
	}
	if !parseTimestamp("yesterday").IsZero() {
		t.Fatalf("expected junk timestamp to be zero")
	}
}

func TestJaccardBounds(t *testing.T) {
	t.Parallel()

	a := titleTokens("port strike halts operations")
	b := titleTokens("port strike halts operations")
	if got := jaccard(a, b); got != 1 {
		t.Fatalf("identical titles: expected 1, got %v", got)
	}
	c := titleTokens("currency volatility worries exporters")
	if got := jaccard(a, c); got != 0 {
		t.Fatalf("disjoint titles: expected 0, got %v", got)
	}
	if got := jaccard(nil, a); got != 0 {
		t.Fatalf("empty set: expected 0, got %v", got)
	}
}
