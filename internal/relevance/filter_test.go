package relevance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"GeoTradeAI/internal/domain"
)

// stubEmbedder returns fixed vectors keyed by substring match, so cosine
// similarity between query and article is controlled by the test.
type stubEmbedder struct {
	vectors map[string][]float64
	fail    bool
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("embedding service down")
	}
	for key, vec := range s.vectors {
		if strings.Contains(text, key) {
			return vec, nil
		}
	}
	return []float64{1, 0, 0}, nil
}

func article(id, title string) domain.NormalizedArticle {
	return domain.NormalizedArticle{ID: id, Title: title}
}

func TestScoreThresholdInclusive(t *testing.T) {
	t.Parallel()

	// Query and article vectors at exactly cos=0.5 with threshold 0.5:
	// the boundary article must be relevant.
	emb := &stubEmbedder{vectors: map[string][]float64{
		"Trade disruption": {1, 0},
		"boundary":         {0.5, 0.8660254037844386},
	}}
	f := New(emb, Config{Threshold: 0.5}, nil, nil)

	verdicts, err := f.Score(context.Background(), domain.Query{Product: "Electronics", Country: "China"},
		[]domain.NormalizedArticle{article("a1", "boundary event")})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if !verdicts[0].IsRelevant {
		t.Fatalf("expected boundary score to be relevant, got %+v", verdicts[0])
	}
	if verdicts[0].Score != 5.0 {
		t.Fatalf("expected score 5.0, got %v", verdicts[0].Score)
	}
}

func TestScoreNoiseCountryVeto(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{}}
	f := New(emb, Config{Threshold: 0.3, NoiseCountries: []string{"india"}}, []string{"tanger med"}, nil)

	verdicts, err := f.Score(context.Background(), domain.Query{Product: "Textiles", Country: "China"},
		[]domain.NormalizedArticle{
			article("a1", "India raises export duties on textiles"),
			article("a2", "Congestion at Tanger Med slows India-bound transshipment"),
		})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if verdicts[0].IsRelevant || verdicts[0].Score != 0 {
		t.Fatalf("expected third-country noise vetoed, got %+v", verdicts[0])
	}
	// Destination mention overrides the noise veto.
	if !verdicts[1].IsRelevant {
		t.Fatalf("expected destination mention to survive veto, got %+v", verdicts[1])
	}
}

func TestScoreCountryBoost(t *testing.T) {
	t.Parallel()

	// Orthogonal vectors: similarity 0. The boost alone must lift the
	// article over a low threshold when the query country is mentioned.
	emb := &stubEmbedder{vectors: map[string][]float64{
		"Trade disruption": {1, 0},
		"China":            {0, 1},
	}}
	f := New(emb, Config{Threshold: 0.2, CountryBoost: 0.25}, nil, nil)

	verdicts, err := f.Score(context.Background(), domain.Query{Product: "Electronics", Country: "China"},
		[]domain.NormalizedArticle{article("a1", "China halts component exports")})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if !verdicts[0].IsRelevant {
		t.Fatalf("expected boosted article relevant, got %+v", verdicts[0])
	}
}

func TestScoreEmptyBodyStillScored(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{}}
	f := New(emb, Config{Threshold: 0.3}, nil, nil)

	arts := []domain.NormalizedArticle{{ID: "a1", Title: "Port closure announced"}}
	verdicts, err := f.Score(context.Background(), domain.Query{Product: "Electronics", Country: "China"}, arts)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(verdicts) != 1 {
		t.Fatalf("article with empty body must still get a verdict")
	}
}

func TestScoreEmbedderDownFallsBackToKeywords(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{fail: true}
	f := New(emb, Config{Threshold: 0.3}, []string{"tanger med"}, nil)

	verdicts, err := f.Score(context.Background(), domain.Query{Product: "Electronics", Country: "China"},
		[]domain.NormalizedArticle{
			article("a1", "Strike at Tanger Med"),
			article("a2", "Local football results"),
		})
	if err != nil {
		t.Fatalf("fallback should not surface error, got %v", err)
	}
	if !verdicts[0].IsRelevant {
		t.Fatalf("keyword fallback should keep destination article, got %+v", verdicts[0])
	}
	if verdicts[1].IsRelevant {
		t.Fatalf("keyword fallback should reject unrelated article, got %+v", verdicts[1])
	}
}

func TestEmbedCacheAvoidsRecomputation(t *testing.T) {
	t.Parallel()

	emb := &stubEmbedder{vectors: map[string][]float64{}}
	f := New(emb, Config{Threshold: 0.3}, nil, nil)

	ctx := context.Background()
	if _, err := f.embed(ctx, "same text"); err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if _, err := f.embed(ctx, "same text"); err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("expected 1 service call, got %d", emb.calls)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	if got := cosine([]float64{1, 0}, []float64{1, 0}); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := cosine([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := cosine(nil, []float64{1}); got != 0 {
		t.Fatalf("expected 0 for empty vector, got %v", got)
	}
	if got := cosine([]float64{1, 2}, []float64{1}); got != 0 {
		t.Fatalf("expected 0 for mismatched dims, got %v", got)
	}
}
