// Package weather maps raw weather metrics onto a discrete logistics impact
// level. Threshold semantics (all boundaries come from configuration):
//
//	wind speed > severe (20 m/s) or gust > gust-severe (25 m/s)  +4 points
//	wind speed > strong (10 m/s)                                 +2
//	thunderstorm conditions                                      +3
//	snow or ice conditions                                       +2
//	rain or drizzle                                              +1
//	precipitation > heavy boundary (50 mm)                       +2
//	visibility < poor boundary (1 km)                            +3
//	temperature > heat extreme (40°C) or < cold extreme (-10°C)  +2
//
// The summed points map onto impact levels: 0 is none, up to the low ceiling
// (3) is low, up to the medium ceiling (6) is medium, anything above is high.
package weather

import (
	"fmt"
	"strings"

	"GeoTradeAI/internal/domain"
)

// Thresholds are the rule boundaries the evaluator applies.
type Thresholds struct {
	WindStrong       float64
	WindSevere       float64
	GustSevere       float64
	PrecipitationMM  float64
	VisibilityPoorKM float64
	HeatExtremeC     float64
	ColdExtremeC     float64
	LowMaxPoints     int
	MediumMaxPoints  int
}

// Evaluator converts metrics into a WeatherSignal. It is a pure function of
// its inputs and performs no I/O.
type Evaluator struct {
	t Thresholds
}

// New builds an evaluator over the given boundaries.
func New(t Thresholds) *Evaluator {
	return &Evaluator{t: t}
}

// Evaluate applies the threshold table to the metrics. The returned signal
// always carries status ok; use Unavailable for fetch failures.
func (e *Evaluator) Evaluate(m domain.WeatherMetrics) domain.WeatherSignal {
	points := 0
	var factors []string

	switch {
	case m.WindSpeed > e.t.WindSevere || m.WindGust > e.t.GustSevere:
		points += 4
		factors = append(factors, fmt.Sprintf("very strong winds (speed %.1f m/s, gusts %.1f m/s)", m.WindSpeed, m.WindGust))
	case m.WindSpeed > e.t.WindStrong:
		points += 2
		factors = append(factors, fmt.Sprintf("strong winds (speed %.1f m/s, gusts %.1f m/s)", m.WindSpeed, m.WindGust))
	}

	condition := strings.ToLower(m.Condition)
	switch {
	case strings.Contains(condition, "thunder"):
		points += 3
		factors = append(factors, "thunderstorm conditions: "+m.Condition)
	case strings.Contains(condition, "snow"), strings.Contains(condition, "ice"),
		strings.Contains(condition, "blizzard"), strings.Contains(condition, "sleet"):
		points += 2
		factors = append(factors, "snow/ice conditions: "+m.Condition)
	case strings.Contains(condition, "rain"), strings.Contains(condition, "drizzle"):
		points++
		factors = append(factors, "rainy conditions: "+m.Condition)
	}

	if m.Precipitation > e.t.PrecipitationMM {
		points += 2
		factors = append(factors, fmt.Sprintf("heavy precipitation (%.0f mm)", m.Precipitation))
	}
	if m.Visibility < e.t.VisibilityPoorKM {
		points += 3
		factors = append(factors, fmt.Sprintf("very poor visibility (%.1f km)", m.Visibility))
	}
	if m.Temperature > e.t.HeatExtremeC {
		points += 2
		factors = append(factors, fmt.Sprintf("extreme heat (%.0f°C)", m.Temperature))
	} else if m.Temperature < e.t.ColdExtremeC {
		points += 2
		factors = append(factors, fmt.Sprintf("extreme cold (%.0f°C)", m.Temperature))
	}

	metrics := m
	return domain.WeatherSignal{
		Impact:      e.impactLevel(points),
		Status:      domain.WeatherOK,
		Description: describe(e.impactLevel(points)),
		Factors:     factors,
		Metrics:     &metrics,
	}
}

// Unavailable marks the weather source as unreachable without implying calm
// conditions.
func Unavailable() domain.WeatherSignal {
	return domain.WeatherSignal{
		Impact:      domain.ImpactNone,
		Status:      domain.WeatherUnavailable,
		Description: "weather data unavailable",
	}
}

func (e *Evaluator) impactLevel(points int) domain.ImpactLevel {
	switch {
	case points == 0:
		return domain.ImpactNone
	case points <= e.t.LowMaxPoints:
		return domain.ImpactLow
	case points <= e.t.MediumMaxPoints:
		return domain.ImpactMedium
	default:
		return domain.ImpactHigh
	}
}

func describe(level domain.ImpactLevel) string {
	switch level {
	case domain.ImpactNone:
		return "weather conditions are favorable for logistics operations"
	case domain.ImpactLow:
		return "minor weather-related delays possible"
	case domain.ImpactMedium:
		return "weather may cause noticeable delays in shipping and logistics"
	default:
		return "severe weather likely to disrupt logistics operations significantly"
	}
}
