package model

import (
	"fmt"
	"time"
)

// Version is the release tag reported by the CLI and stamped into records.
const Version = "0.2.1"

// Config is the complete runtime configuration.
type Config struct {
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Retrieval    RetrievalConfig    `yaml:"retrieval" mapstructure:"retrieval"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// VerificationConfig controls the triangulation engine.
type VerificationConfig struct {
	// MinIndependentSources is the corroboration threshold: the number of
	// distinct source groups (domains) that must agree before a value is
	// considered verified.
	MinIndependentSources int `yaml:"min_independent_sources" mapstructure:"min_independent_sources"`

	// MaxUnitsToScan is the hard cap on extraction attempts per run.
	MaxUnitsToScan int `yaml:"max_units_to_scan" mapstructure:"max_units_to_scan"`

	// EarlyStopOnVerified stops requesting evidence once the ledger already
	// adjudicates to a decided status.
	EarlyStopOnVerified bool `yaml:"early_stop_on_verified" mapstructure:"early_stop_on_verified"`

	// MinAttemptsBeforeStop guards the early-stop check: it is never
	// evaluated before this many attempts have been ingested. Prevents a
	// one-attempt "verified" when min_independent_sources is set to 1.
	MinAttemptsBeforeStop int `yaml:"min_attempts_before_stop" mapstructure:"min_attempts_before_stop"`

	// EvidenceTierOrder lists tier labels strongest-first and supplies the
	// quality ranking table used for tie-breaks.
	EvidenceTierOrder []string `yaml:"evidence_tier_order" mapstructure:"evidence_tier_order"`
}

// RetrievalConfig controls semantic chunk retrieval.
type RetrievalConfig struct {
	QueryTemplate     string  `yaml:"query_template" mapstructure:"query_template"`
	InitialCandidates int     `yaml:"initial_candidates" mapstructure:"initial_candidates"`
	MinSimilarity     float64 `yaml:"min_similarity" mapstructure:"min_similarity"`
}

// LLMConfig configures the extraction/embedding provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	EmbedModel  string  `yaml:"embed_model" mapstructure:"embed_model"`
	APIKey      string  `yaml:"-" mapstructure:"-"` // Environment only, never written to disk
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// HTTPConfig configures corpus ingestion fetches.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the layered cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel work across subjects.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig bounds outbound request rates per domain.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Verification: VerificationConfig{
			MinIndependentSources: 2,
			MaxUnitsToScan:        10,
			EarlyStopOnVerified:   true,
			MinAttemptsBeforeStop: 2,
			EvidenceTierOrder:     DefaultTierOrder(),
		},
		Retrieval: RetrievalConfig{
			QueryTemplate:     "When was %s born? Date of birth, birth year, biography.",
			InitialCandidates: 30,
			MinSimilarity:     0.25,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			EmbedModel:  "text-embedding-3-small",
			Timeout:     30,
			MaxTokens:   400,
			Temperature: 0.0,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Bioverify/0.2 (+https://github.com/patterson-s/EliteResearchAgent)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".bioverify-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Dir:           "./review",
			IncludeFooter: true,
		},
	}
}

// Validate checks configuration validity. The engine refuses to start a run
// on an invalid configuration rather than produce a silently wrong
// adjudication.
func (c *Config) Validate() error {
	v := c.Verification
	if v.MinIndependentSources < 1 {
		return fmt.Errorf("verification.min_independent_sources must be >= 1, got %d", v.MinIndependentSources)
	}
	if v.MaxUnitsToScan < 1 {
		return fmt.Errorf("verification.max_units_to_scan must be >= 1, got %d", v.MaxUnitsToScan)
	}
	if v.MinAttemptsBeforeStop < 1 {
		return fmt.Errorf("verification.min_attempts_before_stop must be >= 1, got %d", v.MinAttemptsBeforeStop)
	}
	if len(v.EvidenceTierOrder) == 0 {
		return fmt.Errorf("verification.evidence_tier_order must not be empty")
	}
	seen := make(map[string]bool, len(v.EvidenceTierOrder))
	for _, label := range v.EvidenceTierOrder {
		if label == "" {
			return fmt.Errorf("verification.evidence_tier_order contains an empty label")
		}
		if seen[label] {
			return fmt.Errorf("verification.evidence_tier_order contains duplicate label %q", label)
		}
		seen[label] = true
	}
	if c.Retrieval.InitialCandidates < 1 {
		return fmt.Errorf("retrieval.initial_candidates must be >= 1, got %d", c.Retrieval.InitialCandidates)
	}
	return nil
}
