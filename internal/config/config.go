// Package config defines the application configuration model and its loader.
// Configuration is resolved from three layers, later layers overriding
// earlier ones:
//
//  1. Compiled-in defaults (ApplyDefaults).
//  2. A YAML configuration file.
//  3. Environment variables with the PROMPTDECK_ prefix, nested keys joined
//     with underscores (e.g., PROMPTDECK_ENRICHMENT_MAX_RETRIES).
package config

import (
	"fmt"
	"time"

	"github.com/promptdeck/promptdeck/internal/infrastructure/monitoring/logging"
)

// AppConfig is the root configuration object for all promptdeck binaries.
type AppConfig struct {
	App        AppInfo          `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
}

// AppInfo identifies the running service instance.
type AppInfo struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds the HTTP server parameters.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig mirrors logging.LogConfig with mapstructure tags so it can be
// decoded by viper alongside the rest of the configuration tree.
type LogConfig struct {
	Level            string   `mapstructure:"level"`
	Format           string   `mapstructure:"format"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ToLoggingConfig converts to the logging package's configuration type.
func (c LogConfig) ToLoggingConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:            c.Level,
		Format:           c.Format,
		OutputPaths:      c.OutputPaths,
		ErrorOutputPaths: c.ErrorOutputPaths,
	}
}

// DatabaseConfig holds the PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig holds the Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DedupeTTL    time.Duration `mapstructure:"dedupe_ttl"`
}

// KafkaConfig holds the Kafka producer parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	ClientID     string        `mapstructure:"client_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	Async        bool          `mapstructure:"async"`
	Enabled      bool          `mapstructure:"enabled"`
}

// EnrichmentConfig holds every knob of the AI enrichment engine: model
// selection, transport mode, input limits, retry budget, and batch caps.
type EnrichmentConfig struct {
	// APIKey authenticates against the model provider.  Usually supplied via
	// PROMPTDECK_ENRICHMENT_API_KEY rather than the config file.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint; empty means the provider default.
	BaseURL string `mapstructure:"base_url"`

	// Model is the model identifier sent on completion requests.
	Model string `mapstructure:"model"`

	// AssistantID selects the pre-configured assistant when TransportMode is
	// "assistant".  Required in that mode, ignored otherwise.
	AssistantID string `mapstructure:"assistant_id"`

	// TransportMode selects the model invocation strategy:
	// "completion" — single-shot chat completion (default).
	// "assistant"  — thread-based assistant run with polling.
	TransportMode string `mapstructure:"transport_mode"`

	// Temperature is the sampling temperature for completion calls.
	Temperature float32 `mapstructure:"temperature"`

	// MaxOutputTokens bounds the model's reply length.
	MaxOutputTokens int `mapstructure:"max_output_tokens"`

	// MaxContentLength is the character cap applied to user content before it
	// is embedded in a prompt.  Longer content is truncated, never rejected.
	MaxContentLength int `mapstructure:"max_content_length"`

	// MaxPromptLength is the character cap applied to stored prompt text
	// included as classification context.
	MaxPromptLength int `mapstructure:"max_prompt_length"`

	// MaxRetries is the number of retries after the initial attempt, so the
	// total attempt count is MaxRetries+1.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// CallTimeout bounds each individual model invocation.
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	// PollInterval is the pause between assistant run status checks.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// ClassifyBatchLimit caps the item count of a classification batch.
	ClassifyBatchLimit int `mapstructure:"classify_batch_limit"`

	// RiskBatchLimit caps the item count of a risk-assessment batch.
	RiskBatchLimit int `mapstructure:"risk_batch_limit"`

	// ClassifyConcurrency is the number of classification batch workers.
	ClassifyConcurrency int `mapstructure:"classify_concurrency"`

	// RiskConcurrency is the number of risk-assessment batch workers.
	RiskConcurrency int `mapstructure:"risk_concurrency"`

	// RiskWeights overrides individual category weights in the overall risk
	// score.  Keys are category names; categories not listed keep their
	// built-in weight.  Non-positive values are ignored.
	RiskWeights map[string]float64 `mapstructure:"risk_weights"`

	// RiskThresholds overrides the inclusive lower bound of each risk tier.
	RiskThresholds RiskThresholdsConfig `mapstructure:"risk_thresholds"`
}

// RiskThresholdsConfig holds the inclusive lower bound of each risk tier
// above "none".  The table must be strictly descending.
type RiskThresholdsConfig struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
	Low      float64 `mapstructure:"low"`
}

// ApplyDefaults fills in zero-valued fields with production defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "promptdeck"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "promptdeck"
	}
	if c.Database.DBName == "" {
		c.Database.DBName = "promptdeck"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "promptdeck"
	}
	if c.Redis.DedupeTTL == 0 {
		c.Redis.DedupeTTL = 10 * time.Minute
	}

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.AuditTopic == "" {
		c.Kafka.AuditTopic = "enrichment.audit"
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "promptdeck"
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 100 * time.Millisecond
	}

	e := &c.Enrichment
	if e.Model == "" {
		e.Model = "gpt-4o-mini"
	}
	if e.TransportMode == "" {
		e.TransportMode = "completion"
	}
	if e.Temperature == 0 {
		e.Temperature = 0.2
	}
	if e.MaxOutputTokens == 0 {
		e.MaxOutputTokens = 1024
	}
	if e.MaxContentLength == 0 {
		e.MaxContentLength = 8000
	}
	if e.MaxPromptLength == 0 {
		e.MaxPromptLength = 4000
	}
	if e.MaxRetries == 0 {
		e.MaxRetries = 2
	}
	if e.RetryDelay == 0 {
		e.RetryDelay = time.Second
	}
	if e.CallTimeout == 0 {
		e.CallTimeout = 30 * time.Second
	}
	if e.PollInterval == 0 {
		e.PollInterval = time.Second
	}
	if e.ClassifyBatchLimit == 0 {
		e.ClassifyBatchLimit = 50
	}
	if e.RiskBatchLimit == 0 {
		e.RiskBatchLimit = 100
	}
	if e.ClassifyConcurrency == 0 {
		e.ClassifyConcurrency = 4
	}
	if e.RiskConcurrency == 0 {
		e.RiskConcurrency = 1
	}
	if e.RiskThresholds.Critical == 0 {
		e.RiskThresholds.Critical = 80
	}
	if e.RiskThresholds.High == 0 {
		e.RiskThresholds.High = 60
	}
	if e.RiskThresholds.Medium == 0 {
		e.RiskThresholds.Medium = 40
	}
	if e.RiskThresholds.Low == 0 {
		e.RiskThresholds.Low = 20
	}
}

// Validate checks the configuration for values that would render the
// application inoperable.  It is called after ApplyDefaults, so only values a
// user can break explicitly are checked.
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	switch c.Enrichment.TransportMode {
	case "completion":
	case "assistant":
		if c.Enrichment.AssistantID == "" {
			return fmt.Errorf("config: enrichment.assistant_id is required when transport_mode is %q", c.Enrichment.TransportMode)
		}
	default:
		return fmt.Errorf("config: unknown enrichment.transport_mode %q", c.Enrichment.TransportMode)
	}

	if c.Enrichment.MaxRetries < 0 {
		return fmt.Errorf("config: enrichment.max_retries must not be negative")
	}
	if c.Enrichment.ClassifyBatchLimit < 1 {
		return fmt.Errorf("config: enrichment.classify_batch_limit must be at least 1")
	}
	if c.Enrichment.RiskBatchLimit < 1 {
		return fmt.Errorf("config: enrichment.risk_batch_limit must be at least 1")
	}
	if c.Enrichment.ClassifyConcurrency < 1 {
		return fmt.Errorf("config: enrichment.classify_concurrency must be at least 1")
	}
	if c.Enrichment.RiskConcurrency < 1 {
		return fmt.Errorf("config: enrichment.risk_concurrency must be at least 1")
	}
	if c.Enrichment.CallTimeout <= 0 {
		return fmt.Errorf("config: enrichment.call_timeout must be positive")
	}
	if c.Enrichment.PollInterval <= 0 {
		return fmt.Errorf("config: enrichment.poll_interval must be positive")
	}
	th := c.Enrichment.RiskThresholds
	if !(th.Critical > th.High && th.High > th.Medium && th.Medium > th.Low && th.Low >= 0) {
		return fmt.Errorf("config: enrichment.risk_thresholds must be strictly descending and non-negative")
	}
	return nil
}
