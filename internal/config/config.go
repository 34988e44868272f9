package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"GeoTradeAI/internal/domain"
)

const (
	configPathEnv    = "GEOTRADE_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	newsAPIKeyEnv    = "NEWSAPI_KEY"
	gnewsAPIKeyEnv   = "GNEWS_API_KEY"
	weatherAPIKeyEnv = "WEATHERAPI_KEY"
	ollamaBaseURLEnv = "OLLAMA_BASE_URL"
	ollamaModelEnv   = "OLLAMA_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds every tunable the pipeline depends on. Thresholds and weights
// live here rather than as constants in the scoring code; missing values are
// a fatal startup error, never a mid-pipeline one.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Providers     ProviderConfig     `yaml:"providers"`
	LLM           LLMConfig          `yaml:"llm"`
	Embedding     EmbeddingConfig    `yaml:"embedding"`
	Weather       WeatherConfig      `yaml:"weather"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Relevance     RelevanceConfig    `yaml:"relevance"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Aggregation   AggregationConfig  `yaml:"aggregation"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	History       HistoryConfig      `yaml:"history"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details for report history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ProviderConfig groups settings for the news sources.
type ProviderConfig struct {
	NewsAPI       NewsSourceConfig `yaml:"newsapi"`
	GNews         NewsSourceConfig `yaml:"gnews"`
	MaxResults    int              `yaml:"maxResults"`
	EnrichContent bool             `yaml:"enrichContent"`
}

// NewsSourceConfig wires one upstream news API.
type NewsSourceConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// LLMConfig defines how to contact the local generation service.
type LLMConfig struct {
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
	RPM            float64 `yaml:"rpm"`
	Burst          int     `yaml:"burst"`
}

// EmbeddingConfig defines how to contact the embedding service.
type EmbeddingConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// WeatherConfig wires the weather data source and the impact thresholds.
// Thresholds are documented in internal/weather.
type WeatherConfig struct {
	APIKey     string            `yaml:"apiKey"`
	BaseURL    string            `yaml:"baseUrl"`
	Thresholds WeatherThresholds `yaml:"thresholds"`
}

// WeatherThresholds are the rule boundaries the evaluator applies.
type WeatherThresholds struct {
	WindStrong       float64 `yaml:"windStrong"`       // m/s
	WindSevere       float64 `yaml:"windSevere"`       // m/s
	GustSevere       float64 `yaml:"gustSevere"`       // m/s
	PrecipitationMM  float64 `yaml:"precipitationMm"`  // heavy rain boundary
	VisibilityPoorKM float64 `yaml:"visibilityPoorKm"` // port-halting fog
	HeatExtremeC     float64 `yaml:"heatExtremeC"`
	ColdExtremeC     float64 `yaml:"coldExtremeC"`
	LowMaxPoints     int     `yaml:"lowMaxPoints"`    // points ceiling for "low"
	MediumMaxPoints  int     `yaml:"mediumMaxPoints"` // points ceiling for "medium"
}

// DedupConfig controls duplicate clustering.
type DedupConfig struct {
	TitleSimilarity float64 `yaml:"titleSimilarity"`
}

// RelevanceConfig controls the semantic filter.
type RelevanceConfig struct {
	Threshold      float64  `yaml:"threshold"`    // cosine similarity, inclusive
	CountryBoost   float64  `yaml:"countryBoost"` // added when destination keywords appear
	NoiseCountries []string `yaml:"noiseCountries"`
}

// ScoringConfig parameterizes the deterministic severity strategy.
type ScoringConfig struct {
	RecencyWindowDays int               `yaml:"recencyWindowDays"`
	Destination       DestinationConfig `yaml:"destination"`
	Multipliers       MultiplierConfig  `yaml:"multipliers"`
	NoiseCountries    []string          `yaml:"noiseCountries"`
}

// DestinationConfig names the importer's own region: its ports and the
// regulatory vocabulary that should boost severity when mentioned.
type DestinationConfig struct {
	Country  string   `yaml:"country"`
	Ports    []string `yaml:"ports"`
	Keywords []string `yaml:"keywords"`
}

// MultiplierConfig bounds the geographic weighting. All values must stay
// within [0.3, 2.0].
type MultiplierConfig struct {
	Noise     float64 `yaml:"noise"`     // unrelated third country
	Port      float64 `yaml:"port"`      // named destination port
	Country   float64 `yaml:"country"`   // destination country / customs body
	Container float64 `yaml:"container"` // container traffic co-mention
}

// AggregationConfig parameterizes the final report computation.
type AggregationConfig struct {
	TopK            int     `yaml:"topK"`
	WeatherLowAdd   float64 `yaml:"weatherLowAdd"`
	WeatherMedAdd   float64 `yaml:"weatherMedAdd"`
	WeatherHighAdd  float64 `yaml:"weatherHighAdd"`
	BreakpointLow   float64 `yaml:"breakpointLow"`    // below: low
	BreakpointMed   float64 `yaml:"breakpointMedium"` // below: medium
	BreakpointHigh  float64 `yaml:"breakpointHigh"`   // below: high, at or above: critical
	MaxConcerns     int     `yaml:"maxConcerns"`
	MaxActions      int     `yaml:"maxActions"`
}

// PipelineConfig bounds the orchestration.
type PipelineConfig struct {
	// ScoringConcurrency defaults to 1: a local inference service usually
	// serializes requests.
	ScoringConcurrency int `yaml:"scoringConcurrency"`
	TimeoutSeconds     int `yaml:"timeoutSeconds"`
}

// NotificationConfig encapsulates outbound alert channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send alert messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig drives periodic re-assessment of watched routes.
type SchedulerConfig struct {
	IntervalHours int           `yaml:"intervalHours"`
	Routes        []RouteConfig `yaml:"routes"`
}

// RouteConfig is one watched (product, source country) pair.
type RouteConfig struct {
	Product  string `yaml:"product"`
	Country  string `yaml:"country"`
	DaysBack int    `yaml:"daysBack"`
}

// HistoryConfig bounds the anomaly review of persisted reports.
type HistoryConfig struct {
	Limit            int     `yaml:"limit"`
	AnomalyThreshold float64 `yaml:"anomalyThreshold"` // absolute z-score
	MinPoints        int     `yaml:"minPoints"`
}

// Load reads YAML configuration (if present) over defaults and applies
// environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Providers.NewsAPI.APIKey = v
	}
	if v := os.Getenv(gnewsAPIKeyEnv); v != "" {
		c.Providers.GNews.APIKey = v
	}
	if v := os.Getenv(weatherAPIKeyEnv); v != "" {
		c.Weather.APIKey = v
	}
	if v := os.Getenv(ollamaBaseURLEnv); v != "" {
		c.LLM.BaseURL = v
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv(ollamaModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// Validate rejects configurations that would make the pipeline misbehave
// silently. Called once at startup.
func (c Config) Validate() error {
	if c.Dedup.TitleSimilarity <= 0 || c.Dedup.TitleSimilarity > 1 {
		return fmt.Errorf("%w: dedup.titleSimilarity must be in (0,1], got %v",
			domain.ErrConfiguration, c.Dedup.TitleSimilarity)
	}
	if c.Relevance.Threshold < 0 || c.Relevance.Threshold > 1 {
		return fmt.Errorf("%w: relevance.threshold must be in [0,1], got %v",
			domain.ErrConfiguration, c.Relevance.Threshold)
	}
	m := c.Scoring.Multipliers
	for name, v := range map[string]float64{
		"noise": m.Noise, "port": m.Port, "country": m.Country, "container": m.Container,
	} {
		if v < 0.3 || v > 2.0 {
			return fmt.Errorf("%w: scoring.multipliers.%s must be in [0.3,2.0], got %v",
				domain.ErrConfiguration, name, v)
		}
	}
	if c.Scoring.RecencyWindowDays <= 0 {
		return fmt.Errorf("%w: scoring.recencyWindowDays must be positive", domain.ErrConfiguration)
	}
	a := c.Aggregation
	if a.TopK <= 0 {
		return fmt.Errorf("%w: aggregation.topK must be positive", domain.ErrConfiguration)
	}
	if !(a.BreakpointLow < a.BreakpointMed && a.BreakpointMed < a.BreakpointHigh) {
		return fmt.Errorf("%w: aggregation breakpoints must be strictly increasing", domain.ErrConfiguration)
	}
	if a.MaxConcerns <= 0 || a.MaxActions <= 0 {
		return fmt.Errorf("%w: aggregation caps must be positive", domain.ErrConfiguration)
	}
	if c.Pipeline.ScoringConcurrency <= 0 {
		return fmt.Errorf("%w: pipeline.scoringConcurrency must be positive", domain.ErrConfiguration)
	}
	if c.History.AnomalyThreshold <= 0 {
		return fmt.Errorf("%w: history.anomalyThreshold must be positive", domain.ErrConfiguration)
	}
	if c.History.MinPoints < 2 {
		return fmt.Errorf("%w: history.minPoints must be at least 2", domain.ErrConfiguration)
	}
	return nil
}

// LLMTimeout resolves the per-call generation budget.
func (c Config) LLMTimeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// PipelineTimeout resolves the whole-assessment deadline.
func (c Config) PipelineTimeout() time.Duration {
	if c.Pipeline.TimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Pipeline.TimeoutSeconds) * time.Second
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Providers: ProviderConfig{
			NewsAPI:    NewsSourceConfig{BaseURL: "https://newsapi.org/v2/everything"},
			GNews:      NewsSourceConfig{BaseURL: "https://gnews.io/api/v4/search"},
			MaxResults: 50,
		},
		LLM: LLMConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "llama3.2",
			TimeoutSeconds: 30,
			RPM:            30,
			Burst:          2,
		},
		Embedding: EmbeddingConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "all-minilm",
			TimeoutSeconds: 15,
		},
		Weather: WeatherConfig{
			BaseURL: "http://api.weatherapi.com/v1/current.json",
			Thresholds: WeatherThresholds{
				WindStrong:       10,
				WindSevere:       20,
				GustSevere:       25,
				PrecipitationMM:  50,
				VisibilityPoorKM: 1,
				HeatExtremeC:     40,
				ColdExtremeC:     -10,
				LowMaxPoints:     3,
				MediumMaxPoints:  6,
			},
		},
		Dedup: DedupConfig{TitleSimilarity: 0.85},
		Relevance: RelevanceConfig{
			Threshold:    0.35,
			CountryBoost: 0.25,
			NoiseCountries: []string{
				"india", "vietnam", "thailand", "brazil", "mexico",
				"turkey", "egypt", "philippines", "bangladesh",
			},
		},
		Scoring: ScoringConfig{
			RecencyWindowDays: 7,
			Destination: DestinationConfig{
				Country: "Morocco",
				Ports: []string{
					"tanger med", "tangermed", "casablanca port",
					"port casablanca", "mohammedia", "agadir port",
				},
				Keywords: []string{
					"morocco", "maroc", "moroccan customs", "customs morocco",
					"portnet", "guichet unique",
				},
			},
			Multipliers: MultiplierConfig{
				Noise:     0.3,
				Port:      2.0,
				Country:   1.8,
				Container: 1.5,
			},
			NoiseCountries: []string{
				"india", "vietnam", "thailand", "brazil", "mexico",
				"turkey", "egypt",
			},
		},
		Aggregation: AggregationConfig{
			TopK:           3,
			WeatherLowAdd:  0.5,
			WeatherMedAdd:  1.0,
			WeatherHighAdd: 2.0,
			BreakpointLow:  3,
			BreakpointMed:  6,
			BreakpointHigh: 8,
			MaxConcerns:    5,
			MaxActions:     5,
		},
		Pipeline: PipelineConfig{
			ScoringConcurrency: 1,
			TimeoutSeconds:     120,
		},
		Scheduler: SchedulerConfig{
			IntervalHours: 24,
			Routes: []RouteConfig{
				{Product: "Electronics", Country: "China", DaysBack: 7},
			},
		},
		History: HistoryConfig{
			Limit:            50,
			AnomalyThreshold: 3.0,
			MinPoints:        5,
		},
	}
}
