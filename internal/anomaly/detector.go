package anomaly

import "GeoTradeAI/internal/domain"

// Config bounds the detector. Zero values fall back to the defaults.
type Config struct {
	// Threshold is the absolute z-score above which a report is flagged.
	Threshold float64
	// MinPoints is how many reports must be seen before statistics are
	// considered stable enough to flag against.
	MinPoints int
}

const (
	defaultThreshold = 3.0
	defaultMinPoints = 5
)

// Finding is one flagged report with the statistics that flagged it.
type Finding struct {
	Report domain.RiskReport
	ZScore float64
	Mean   float64
	StdDev float64
}

// Detector flags reports whose risk score deviates from the history seen
// before them.
type Detector struct {
	cfg Config
}

// New builds a detector.
func New(cfg Config) *Detector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.MinPoints < 2 {
		cfg.MinPoints = defaultMinPoints
	}
	return &Detector{cfg: cfg}
}

// Detect runs one pass over reports in chronological order. Each report is
// tested against the statistics of the reports before it, then folded in, so
// a spike is flagged against the history it broke from rather than against
// statistics it already distorted.
func (d *Detector) Detect(reports []domain.RiskReport) []Finding {
	var (
		w        Welford
		findings []Finding
	)
	for _, report := range reports {
		if w.Count() >= d.cfg.MinPoints {
			z := w.ZScore(report.RiskScore)
			if z > d.cfg.Threshold || z < -d.cfg.Threshold {
				findings = append(findings, Finding{
					Report: report,
					ZScore: z,
					Mean:   w.Mean(),
					StdDev: w.StdDev(),
				})
			}
		}
		w.Update(report.RiskScore)
	}
	return findings
}
