package model

import "time"

// Config is the complete wayfare configuration
type Config struct {
	Currency  CurrencyConfig  `yaml:"currency" mapstructure:"currency"`
	Ranking   RankingConfig   `yaml:"ranking" mapstructure:"ranking"`
	Diversity DiversityConfig `yaml:"diversity" mapstructure:"diversity"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// CurrencyConfig controls the rate snapshot and its refresh
type CurrencyConfig struct {
	// SourceURL is an HTTP rate feed; empty means static rates only
	SourceURL string `yaml:"source_url" mapstructure:"source_url"`
	// SourceFile is a JSON or YAML rate file; used when SourceURL is empty
	SourceFile        string             `yaml:"source_file" mapstructure:"source_file"`
	RefreshInterval   time.Duration      `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	MaxAge            time.Duration      `yaml:"max_age" mapstructure:"max_age"`
	Timeout           time.Duration      `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string             `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64            `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	RespectRobots     bool               `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string             `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string             `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string             `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	Rates             map[string]float64 `yaml:"rates" mapstructure:"rates"` // "EUR/USD": 1.08
}

// RankingConfig controls result shaping
type RankingConfig struct {
	Limit   int `yaml:"limit" mapstructure:"limit"` // 0 = no limit
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DiversityConfig holds the re-ranking penalties, as fractions of the
// 100-point score scale
type DiversityConfig struct {
	Enabled               bool     `yaml:"enabled" mapstructure:"enabled"`
	BrandPenalty          float64  `yaml:"brand_penalty" mapstructure:"brand_penalty"`
	NeighborhoodPenalty   float64  `yaml:"neighborhood_penalty" mapstructure:"neighborhood_penalty"`
	NeighborhoodThreshold int      `yaml:"neighborhood_threshold" mapstructure:"neighborhood_threshold"`
	Brands                []string `yaml:"brands" mapstructure:"brands"`
}

// CacheConfig controls the last-good rate payload cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig configures optional result narration
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TopN      int    `yaml:"top_n" mapstructure:"top_n"`

	// StrictEvidence rejects narrations citing URLs outside the results
	StrictEvidence bool `yaml:"strict_evidence" mapstructure:"strict_evidence"`
}

// ServerConfig configures `wayfare serve`
type ServerConfig struct {
	Address      string        `yaml:"address" mapstructure:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig configures zap
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// DefaultBrands are the chain names recognised in display names
var DefaultBrands = []string{
	"hilton", "marriott", "hyatt", "sheraton", "ibis", "novotel", "mercure",
	"holiday inn", "best western", "radisson", "intercontinental", "accor",
	"four seasons", "ritz-carlton", "premier inn",
}

// DefaultRates is the bundled snapshot used until a refresh succeeds.
// Pairs are quoted independently, so A/B and B/A are not exact reciprocals.
var DefaultRates = map[string]float64{
	"EUR/USD": 1.08,
	"USD/EUR": 0.92,
	"GBP/USD": 1.27,
	"USD/GBP": 0.79,
	"EUR/GBP": 0.86,
	"GBP/EUR": 1.16,
	"USD/JPY": 149.5,
	"USD/CAD": 1.36,
	"USD/AUD": 1.52,
	"USD/CHF": 0.88,
	"USD/CNY": 7.24,
	"USD/INR": 83.1,
	"USD/KRW": 1330,
	"USD/MXN": 17.1,
	"USD/SEK": 10.6,
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	rates := make(map[string]float64, len(DefaultRates))
	for k, v := range DefaultRates {
		rates[k] = v
	}
	brands := append([]string(nil), DefaultBrands...)

	return &Config{
		Currency: CurrencyConfig{
			RefreshInterval:   15 * time.Minute,
			MaxAge:            time.Hour,
			Timeout:           10 * time.Second,
			UserAgent:         "Wayfare/0.1 (+https://github.com/ppiankov/wayfare)",
			RequestsPerSecond: 1,
			RespectRobots:     true,
			Rates:             rates,
		},
		Ranking: RankingConfig{
			Limit:   0,
			Workers: len(Domains),
		},
		Diversity: DiversityConfig{
			Enabled:               true,
			BrandPenalty:          0.1,
			NeighborhoodPenalty:   0.2,
			NeighborhoodThreshold: 2,
			Brands:                brands,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".wayfare/cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Timeout:        30,
			MaxTokens:      600,
			TopN:           5,
			StrictEvidence: true,
		},
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
