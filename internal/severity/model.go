package severity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"GeoTradeAI/internal/domain"
	"GeoTradeAI/internal/ports"
)

// ModelStrategy asks a language-generation service for a structured severity
// judgment. Malformed payloads are repaired where possible and fall back to a
// default assessment; only transport failures (timeout, unreachable) surface
// as errors so the chain can switch strategies.
type ModelStrategy struct {
	generator ports.Generator
	timeout   time.Duration
	logger    *slog.Logger
}

var _ Strategy = (*ModelStrategy)(nil)

// NewModelStrategy wires the generation port with a per-call budget.
func NewModelStrategy(generator ports.Generator, timeout time.Duration, logger *slog.Logger) *ModelStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ModelStrategy{generator: generator, timeout: timeout, logger: logger}
}

// Name identifies the strategy in logs and fallback chains.
func (s *ModelStrategy) Name() string { return "model" }

// modelPayload mirrors the JSON shape the prompt requests.
type modelPayload struct {
	SeverityScore   float64  `json:"severity_score"`
	Category        string   `json:"category"`
	ImpactType      string   `json:"impact_type"`
	Reasoning       string   `json:"reasoning"`
	Recommendations []string `json:"recommendations"`
}

// Score prompts the model within the per-call timeout. Transport failures
// propagate; parse failures yield the default assessment instead.
func (s *ModelStrategy) Score(ctx context.Context, q domain.Query, art domain.NormalizedArticle) (domain.SeverityAssessment, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.Generate(callCtx, severityPrompt(q, art))
	if err != nil {
		if callCtx.Err() != nil {
			return domain.SeverityAssessment{}, fmt.Errorf("%w: severity call exceeded %v", domain.ErrTimeout, s.timeout)
		}
		return domain.SeverityAssessment{}, fmt.Errorf("severity generation: %w", err)
	}

	payload, err := parsePayload(raw)
	if err != nil {
		s.debug("model payload unparseable, using default assessment", "article", art.Title, "error", err)
		return fallbackAssessment(art.ID), nil
	}

	return domain.SeverityAssessment{
		ArticleID:  art.ID,
		Score:      clampScore(payload.SeverityScore),
		Category:   parseCategory(payload.Category),
		ImpactType: payload.ImpactType,
		Reasoning:  payload.Reasoning,
		Actions:    payload.Recommendations,
	}, nil
}

func severityPrompt(q domain.Query, art domain.NormalizedArticle) string {
	published := "unknown"
	if !art.PublishedAt.IsZero() {
		published = art.PublishedAt.Format("2006-01-02")
	}
	return fmt.Sprintf(`You are an expert risk analyst assessing supply chain severity for an importer.

Product: %s
Source Country: %s

Event:
Title: %s
Description: %s
Published: %s
Source: %s

Assess the severity of this event's impact on importing %s from %s.
Consider shipping routes, transit time and cost, sourcing alternatives, and
bilateral trade effects.

Respond with JSON only, no markdown:
{
    "severity_score": 0-10,
    "category": "supply_chain|regulatory|economic|security|weather|other",
    "impact_type": "customs|logistics|pricing",
    "reasoning": "brief explanation",
    "recommendations": ["action1", "action2"]
}`,
		q.Product, q.Country,
		art.Title, art.Description, published, art.Source,
		q.Product, q.Country)
}

// fallbackAssessment is returned when the model output cannot be parsed even
// after repair. Score 0 keeps it out of top concerns.
func fallbackAssessment(articleID string) domain.SeverityAssessment {
	return domain.SeverityAssessment{
		ArticleID: articleID,
		Score:     0,
		Category:  domain.CategoryUnknown,
		Reasoning: "parsing failed",
	}
}

// parsePayload decodes the model response, attempting repairs before giving
// up: markdown fences and surrounding prose are stripped, trailing commas
// removed, and unescaped quotes inside string values escaped.
func parsePayload(raw string) (modelPayload, error) {
	var payload modelPayload
	candidate := strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(candidate), &payload); err == nil {
		return payload, nil
	}

	candidate = extractObject(candidate)
	if candidate == "" {
		return payload, fmt.Errorf("%w: no JSON object in response", domain.ErrParseFailure)
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err == nil {
		return payload, nil
	}

	repaired := fixTrailingCommas(fixUnescapedQuotes(candidate))
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	return payload, nil
}

// extractObject strips markdown fences and any prose around the outermost
// JSON object.
func extractObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// fixUnescapedQuotes escapes interior double quotes inside string values.
// A closing quote is only accepted when the next meaningful rune is a JSON
// structural character; anything else is treated as content.
func fixUnescapedQuotes(s string) string {
	var out strings.Builder
	runes := []rune(s)
	inString := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) {
			out.WriteRune(r)
			out.WriteRune(runes[i+1])
			i++
			continue
		}
		if r != '"' {
			out.WriteRune(r)
			continue
		}
		if !inString {
			inString = true
			out.WriteRune(r)
			continue
		}
		if isStringEnd(runes, i+1) {
			inString = false
			out.WriteRune(r)
		} else {
			out.WriteString(`\"`)
		}
	}
	return out.String()
}

func isStringEnd(runes []rune, from int) bool {
	for i := from; i < len(runes); i++ {
		switch runes[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case ',', ':', '}', ']':
			return true
		default:
			return false
		}
	}
	return true
}

func fixTrailingCommas(s string) string {
	s = strings.ReplaceAll(s, ",\n}", "\n}")
	s = strings.ReplaceAll(s, ",}", "}")
	s = strings.ReplaceAll(s, ",\n]", "\n]")
	s = strings.ReplaceAll(s, ",]", "]")
	return s
}

func parseCategory(value string) domain.Category {
	switch domain.Category(strings.ToLower(strings.TrimSpace(value))) {
	case domain.CategorySupplyChain:
		return domain.CategorySupplyChain
	case domain.CategoryRegulatory:
		return domain.CategoryRegulatory
	case domain.CategoryEconomic:
		return domain.CategoryEconomic
	case domain.CategorySecurity:
		return domain.CategorySecurity
	case domain.CategoryWeather:
		return domain.CategoryWeather
	default:
		return domain.CategoryOther
	}
}

func (s *ModelStrategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
