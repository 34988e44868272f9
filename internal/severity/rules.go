package severity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GeoTradeAI/internal/domain"
)

// RuleConfig parameterizes the deterministic strategy. Multipliers must stay
// within [0.3, 2.0]; config validation enforces this at startup.
type RuleConfig struct {
	RecencyWindowDays int

	// Destination vocabulary: the importer's ports and regulatory keywords.
	DestinationCountry  string
	DestinationPorts    []string
	DestinationKeywords []string

	// NoiseCountries suppress events that clearly concern an unrelated
	// third country.
	NoiseCountries []string

	NoiseMultiplier     float64
	PortMultiplier      float64
	CountryMultiplier   float64
	ContainerMultiplier float64

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// eventGroup is one row of the ordered base-score table; first match wins.
type eventGroup struct {
	base     float64
	keywords []string
}

// Base scores follow the event-type ranking: trade prohibitions outrank labor
// actions, which outrank regulatory changes, currency moves, and generic
// logistics friction.
var eventTable = []eventGroup{
	{7, []string{"embargo", "sanction", "export ban", "import ban", "prohibition", "export restriction"}},
	{6, []string{"strike", "walkout", "congestion", "closure", "shutdown", "labor action", "port closed"}},
	{5, []string{"customs", "tariff", "duty", "regulation", "regulatory", "decree", "quota"}},
	{4, []string{"currency", "exchange rate", "devaluation", "volatility", "inflation"}},
	{3, []string{"delay", "logistics", "container", "vessel", "cargo", "shipping", "freight", "supply chain"}},
}

const defaultBase = 1

// RuleStrategy scores articles without any external dependency:
// base (0-7) x geographic multiplier [0.3, 2.0] + urgency addend [0, 3],
// clamped to [0, 10] at one decimal.
type RuleStrategy struct {
	cfg RuleConfig
}

var _ Strategy = (*RuleStrategy)(nil)

// NewRuleStrategy builds the deterministic scorer.
func NewRuleStrategy(cfg RuleConfig) *RuleStrategy {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RuleStrategy{cfg: cfg}
}

// Name identifies the strategy in logs and fallback chains.
func (s *RuleStrategy) Name() string { return "rules" }

// Score never fails; every article gets an assessment.
func (s *RuleStrategy) Score(_ context.Context, q domain.Query, art domain.NormalizedArticle) (domain.SeverityAssessment, error) {
	text := strings.ToLower(art.Text())

	base := baseScore(text)
	multiplier := s.geoMultiplier(text, q)
	urgency := s.urgency(art.PublishedAt)

	score := clampScore(base*multiplier + urgency)
	category := categorize(text)

	return domain.SeverityAssessment{
		ArticleID:  art.ID,
		Score:      score,
		Category:   category,
		ImpactType: impactType(category),
		Reasoning: fmt.Sprintf("base %.0f x geo %.1f + urgency %.0f = %.1f/10",
			base, multiplier, urgency, score),
		Actions: recommendedActions(score, category),
	}, nil
}

func baseScore(text string) float64 {
	for _, group := range eventTable {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.base
			}
		}
	}
	return defaultBase
}

// geoMultiplier weights the event by how directly it touches the destination:
// suppressed for unrelated third countries, boosted for named ports and the
// destination's own customs vocabulary.
func (s *RuleStrategy) geoMultiplier(text string, q domain.Query) float64 {
	country := strings.ToLower(s.cfg.DestinationCountry)

	mentionsDestination := country != "" && strings.Contains(text, country)
	for _, kw := range s.cfg.DestinationKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			mentionsDestination = true
			break
		}
	}

	if !mentionsDestination {
		for _, noise := range s.cfg.NoiseCountries {
			if strings.Contains(text, strings.ToLower(noise)) {
				return s.cfg.NoiseMultiplier
			}
		}
	}

	for _, port := range s.cfg.DestinationPorts {
		if strings.Contains(text, strings.ToLower(port)) {
			return s.cfg.PortMultiplier
		}
	}
	if mentionsDestination {
		return s.cfg.CountryMultiplier
	}
	if strings.Contains(text, "container") && containsFold(text, q.Country) {
		return s.cfg.ContainerMultiplier
	}
	return 1.0
}

// urgency decays from 3 within a day to 0 beyond the recency window.
// Unknown timestamps get the neutral addend 1.
func (s *RuleStrategy) urgency(publishedAt time.Time) float64 {
	if publishedAt.IsZero() {
		return 1
	}
	age := s.cfg.Now().Sub(publishedAt)
	switch {
	case age <= 24*time.Hour:
		return 3
	case age <= 3*24*time.Hour:
		return 2
	case age <= time.Duration(s.cfg.RecencyWindowDays)*24*time.Hour:
		return 1
	default:
		return 0
	}
}

func categorize(text string) domain.Category {
	switch {
	case containsAny(text, "war", "conflict", "attack", "piracy", "unrest", "coup"):
		return domain.CategorySecurity
	case containsAny(text, "storm", "flood", "cyclone", "hurricane", "drought"):
		return domain.CategoryWeather
	case containsAny(text, "customs", "tariff", "regulation", "regulatory", "decree", "quota", "duty"):
		return domain.CategoryRegulatory
	case containsAny(text, "currency", "exchange rate", "inflation", "devaluation", "price"):
		return domain.CategoryEconomic
	case containsAny(text, "port", "strike", "container", "vessel", "shipping", "logistics", "supply chain", "embargo", "export"):
		return domain.CategorySupplyChain
	default:
		return domain.CategoryOther
	}
}

func impactType(category domain.Category) string {
	switch category {
	case domain.CategoryRegulatory:
		return "customs"
	case domain.CategoryEconomic:
		return "pricing"
	default:
		return "logistics"
	}
}

func recommendedActions(score float64, category domain.Category) []string {
	switch {
	case score >= 8:
		return []string{"Verify vessel ETA and customs status before filing the declaration"}
	case score >= 6 && category == domain.CategorySupplyChain:
		return []string{"Monitor destination port for unloading delays"}
	case score >= 6 && category == domain.CategoryRegulatory:
		return []string{"Re-check HS codes and applicable duties before clearance"}
	case score >= 5:
		return []string{"Review invoices and certificates to avoid customs holds"}
	default:
		return []string{"No immediate action required"}
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsFold(text, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return needle != "" && strings.Contains(text, needle)
}
