// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openlead/leadscout/internal/score"
)

// Config holds the full application configuration.
type Config struct {
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Sources  []SourceConfig `yaml:"sources" mapstructure:"sources"`
	Collect  CollectConfig  `yaml:"collect" mapstructure:"collect"`
	Dedup    DedupConfig    `yaml:"dedup" mapstructure:"dedup"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// FetchConfig governs the resilience wrapper.
type FetchConfig struct {
	PerHostDelayMS   int      `yaml:"per_host_delay_ms" mapstructure:"per_host_delay_ms"`
	MaxAttempts      int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBaseMS    int      `yaml:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	BackoffCapMS     int      `yaml:"backoff_cap_ms" mapstructure:"backoff_cap_ms"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RespectRobots    bool     `yaml:"respect_robots" mapstructure:"respect_robots"`
	UserAgents       []string `yaml:"user_agents" mapstructure:"user_agents"`
	BreakerEnabled   bool     `yaml:"breaker_enabled" mapstructure:"breaker_enabled"`
	BreakerThreshold int      `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int      `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// PerHostDelay returns the configured politeness delay.
func (c FetchConfig) PerHostDelay() time.Duration {
	return time.Duration(c.PerHostDelayMS) * time.Millisecond
}

// SourceConfig declares one collector instance.
type SourceConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Type     string `yaml:"type" mapstructure:"type"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// CollectConfig governs the collection stage.
type CollectConfig struct {
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxItems     int `yaml:"max_items" mapstructure:"max_items"`
	LookbackDays int `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// DedupConfig governs entity matching and merge precedence.
type DedupConfig struct {
	Threshold      float64  `yaml:"threshold" mapstructure:"threshold"`
	SourcePriority []string `yaml:"source_priority" mapstructure:"source_priority"`
}

// EnrichConfig governs the enrichment dispatcher.
type EnrichConfig struct {
	Concurrency     int      `yaml:"concurrency" mapstructure:"concurrency"`
	TaskTimeoutSecs int      `yaml:"task_timeout_secs" mapstructure:"task_timeout_secs"`
	Tasks           []string `yaml:"tasks" mapstructure:"tasks"`
}

// ScoringConfig governs the scoring engine.
type ScoringConfig struct {
	Weights    score.Weights    `yaml:"weights" mapstructure:"weights"`
	Thresholds score.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	RulesFile  string           `yaml:"rules_file" mapstructure:"rules_file"`
	MinScore   int              `yaml:"min_score" mapstructure:"min_score"`
}

// ExportConfig governs result output.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// StoreConfig configures the persistence backend: sqlite, postgres, or
// none.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PipelineConfig governs run-level orchestration.
type PipelineConfig struct {
	DeadlineSecs int `yaml:"deadline_secs" mapstructure:"deadline_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("fetch.per_host_delay_ms", 1000)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.backoff_base_ms", 500)
	v.SetDefault("fetch.backoff_cap_ms", 30000)
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.breaker_threshold", 5)
	v.SetDefault("fetch.breaker_reset_secs", 30)
	v.SetDefault("collect.concurrency", 4)
	v.SetDefault("dedup.threshold", 0.90)
	v.SetDefault("enrich.concurrency", 8)
	v.SetDefault("enrich.task_timeout_secs", 20)
	v.SetDefault("enrich.tasks", []string{"techstack", "hiring", "domain"})
	v.SetDefault("scoring.weights.intent", 0.35)
	v.SetDefault("scoring.weights.fit", 0.30)
	v.SetDefault("scoring.weights.tech", 0.20)
	v.SetDefault("scoring.weights.engagement", 0.15)
	v.SetDefault("scoring.thresholds.high", 70)
	v.SetDefault("scoring.thresholds.medium", 40)
	v.SetDefault("export.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadscout.db")
	v.SetDefault("pipeline.deadline_secs", 600)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.PerHostDelayMS <= 0 {
		return eris.New("config: fetch.per_host_delay_ms must be > 0")
	}
	if c.Dedup.Threshold < 0 || c.Dedup.Threshold > 1 {
		return eris.Errorf("config: dedup.threshold %v outside (0, 1]", c.Dedup.Threshold)
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	seen := make(map[string]bool)
	for _, src := range c.Sources {
		if src.Name == "" {
			return eris.New("config: source without name")
		}
		if seen[src.Name] {
			return eris.Errorf("config: duplicate source %q", src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
