package model

import "time"

// Config holds the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Posts     PostsConfig     `yaml:"posts" mapstructure:"posts"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Guard     GuardConfig     `yaml:"guard" mapstructure:"guard"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Profile   Profile         `yaml:"profile" mapstructure:"profile"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// StoreConfig selects the result store backend
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// PostsConfig selects where post content and tags are read from
type PostsConfig struct {
	Source       string        `yaml:"source" mapstructure:"source"` // file, http
	Path         string        `yaml:"path" mapstructure:"path"`
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// LLMConfig configures the optional AI verification backend
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // openai or empty (disabled)
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures caching of AI backend replies
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// GuardConfig configures the at-most-one-in-flight guard
type GuardConfig struct {
	Backend    string        `yaml:"backend" mapstructure:"backend"` // local, redis
	RedisURL   string        `yaml:"redis_url" mapstructure:"redis_url"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	PendingTTL time.Duration `yaml:"pending_ttl" mapstructure:"pending_ttl"`
}

// RateLimitConfig limits API requests per client
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// Client addresses (such as the Bisa backend) given their own rate
	Trusted                  []string `yaml:"trusted" mapstructure:"trusted"`
	TrustedRequestsPerSecond float64  `yaml:"trusted_requests_per_second" mapstructure:"trusted_requests_per_second"`
	TrustedBurst             int      `yaml:"trusted_burst" mapstructure:"trusted_burst"`
}

// SourcesConfig configures the reference source catalog and its audit
type SourcesConfig struct {
	CatalogPath   string        `yaml:"catalog_path" mapstructure:"catalog_path"`
	AuditSchedule string        `yaml:"audit_schedule" mapstructure:"audit_schedule"` // cron spec, empty disables
	AuditWorkers  int           `yaml:"audit_workers" mapstructure:"audit_workers"`
	AuditTimeout  time.Duration `yaml:"audit_timeout" mapstructure:"audit_timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// Profile holds the heuristic weights and classification thresholds.
// The defaults are tuning values, not derived from data.
type Profile struct {
	BaseScore         float64 `yaml:"base_score" mapstructure:"base_score"`
	NumericWeight     float64 `yaml:"numeric_weight" mapstructure:"numeric_weight"`
	DateWeight        float64 `yaml:"date_weight" mapstructure:"date_weight"`
	AttributionWeight float64 `yaml:"attribution_weight" mapstructure:"attribution_weight"`
	QuantifierWeight  float64 `yaml:"quantifier_weight" mapstructure:"quantifier_weight"`
	MinConfidence     float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxConfidence     float64 `yaml:"max_confidence" mapstructure:"max_confidence"`
	VerifiedThreshold float64 `yaml:"verified_threshold" mapstructure:"verified_threshold"` // strict >
	HighThreshold     float64 `yaml:"high_threshold" mapstructure:"high_threshold"`         // inclusive
	MediumThreshold   float64 `yaml:"medium_threshold" mapstructure:"medium_threshold"`     // inclusive
	TrueRatio         float64 `yaml:"true_ratio" mapstructure:"true_ratio"`                 // inclusive
	FalseRatio        float64 `yaml:"false_ratio" mapstructure:"false_ratio"`               // inclusive
	PartialMinScore   float64 `yaml:"partial_min_accuracy" mapstructure:"partial_min_accuracy"`
	MaxClaims         int     `yaml:"max_claims" mapstructure:"max_claims"`
	MinSentenceLength int     `yaml:"min_sentence_length" mapstructure:"min_sentence_length"`
	Jitter            float64 `yaml:"jitter" mapstructure:"jitter"` // 0 keeps scoring deterministic
	Seed              int64   `yaml:"seed" mapstructure:"seed"`
}

// DefaultProfile returns the reference heuristic profile
func DefaultProfile() Profile {
	return Profile{
		BaseScore:         0.5,
		NumericWeight:     0.20,
		DateWeight:        0.15,
		AttributionWeight: 0.10,
		QuantifierWeight:  0.10,
		MinConfidence:     0.4,
		MaxConfidence:     0.95,
		VerifiedThreshold: 0.6,
		HighThreshold:     0.75,
		MediumThreshold:   0.5,
		TrueRatio:         0.8,
		FalseRatio:        0.2,
		PartialMinScore:   0.5,
		MaxClaims:         5,
		MinSentenceLength: 10,
	}
}

// DefaultConfig returns sensible defaults for every section
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  []string{"http://localhost:*", "https://*"},
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Posts: PostsConfig{
			Source:       "file",
			Path:         "posts.yaml",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 1_000_000,
			UserAgent:    "BisaFactCheck/0.1",
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Model:     "gpt-4o-mini",
			Timeout:   10 * time.Second,
			MaxTokens: 1000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Guard: GuardConfig{
			Backend:    "local",
			TTL:        1 * time.Minute,
			PendingTTL: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:        20.0 / 60.0, // 20 requests per minute
			Burst:                    20,
			TrustedRequestsPerSecond: 10,
			TrustedBurst:             50,
		},
		Profile: DefaultProfile(),
		Sources: SourcesConfig{
			AuditWorkers: 4,
			AuditTimeout: 10 * time.Second,
			UserAgent:    "BisaFactCheck/0.1",
		},
	}
}
