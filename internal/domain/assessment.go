package domain

import "time"

// Category classifies the kind of disruption an event describes.
type Category string

const (
	CategorySupplyChain Category = "supply_chain"
	CategoryRegulatory  Category = "regulatory"
	CategoryEconomic    Category = "economic"
	CategorySecurity    Category = "security"
	CategoryWeather     Category = "weather"
	CategoryOther       Category = "other"
	// CategoryUnknown marks assessments produced by the parse-failure
	// fallback, not a real classification.
	CategoryUnknown Category = "unknown"
)

// SeverityAssessment is the scorer's judgment for a single article.
// Immutable once produced.
type SeverityAssessment struct {
	ArticleID  string
	Score      float64 // 0-10, one decimal
	Category   Category
	ImpactType string // e.g. customs, logistics, pricing
	Reasoning  string
	Actions    []string
}

// ScoredArticle pairs an article with its severity assessment for
// aggregation and reporting.
type ScoredArticle struct {
	Article    NormalizedArticle
	Assessment SeverityAssessment
	Relevance  float64
}

// ImpactLevel is the discrete weather disruption tier.
type ImpactLevel string

const (
	ImpactNone   ImpactLevel = "none"
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// WeatherStatus distinguishes "no disruption detected" from "the weather
// source could not be reached"; downstream must not conflate the two.
type WeatherStatus string

const (
	WeatherOK          WeatherStatus = "ok"
	WeatherUnavailable WeatherStatus = "unavailable"
)

// WeatherMetrics are the raw readings the evaluator applies thresholds to.
type WeatherMetrics struct {
	Location      string
	Condition     string
	WindSpeed     float64 // m/s
	WindGust      float64 // m/s
	Precipitation float64 // mm
	Temperature   float64 // °C
	Visibility    float64 // km
}

// WeatherSignal is the evaluator's verdict on logistics risk from weather.
type WeatherSignal struct {
	Impact      ImpactLevel
	Status      WeatherStatus
	Description string
	Factors     []string
	Metrics     *WeatherMetrics
}

// RiskLevel is the overall verdict tier of a report.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ReportStatus reflects how complete the assessment was.
type ReportStatus string

const (
	StatusSuccess ReportStatus = "success"
	StatusWarning ReportStatus = "warning" // partial degradation
	StatusError   ReportStatus = "error"   // no articles and no weather signal
)

// RiskReport is the terminal artifact handed to persistence and rendering.
// It has no further lifecycle inside the core.
type RiskReport struct {
	ID          string
	Product     string
	Country     string
	GeneratedAt time.Time

	OverallRisk RiskLevel
	RiskScore   float64 // 0-10, one decimal
	TotalEvents int

	TopConcerns        []string
	RecommendedActions []string

	Articles []ScoredArticle
	Weather  WeatherSignal

	Status  ReportStatus
	Message string

	// Diagnostics: records dropped before scoring, kept only as counts.
	IrrelevantCount int
	DuplicateCount  int
	UnscoredCount   int
}
