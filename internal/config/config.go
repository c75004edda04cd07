package config

import (
	"fmt"
	"strconv"
	"time"
)

type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Tenant      TenantConfig    `yaml:"tenant"`
	Auth        AuthConfig      `yaml:"auth"`
	Database    DatabaseConfig  `yaml:"database"`
	Redis       RedisConfig     `yaml:"redis"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Cache       CacheConfig     `yaml:"cache"`
	LLM         LLMConfig       `yaml:"llm"`
	Filter      FilterConfig    `yaml:"filter"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	APIPrefix        string        `yaml:"api_prefix"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type TenantConfig struct {
	HeaderName    string `yaml:"header_name"`
	DefaultTenant string `yaml:"default_tenant"`
}

// AuthConfig configures the shared API key gate. The gate is off when neither
// APIKey nor APIKeySHA256 is set.
type AuthConfig struct {
	HeaderName   string   `yaml:"header_name"`
	APIKey       string   `yaml:"api_key"`
	APIKeySHA256 string   `yaml:"api_key_sha256"`
	PublicPaths  []string `yaml:"public_paths"`
}

func (a AuthConfig) Enabled() bool {
	return a.APIKey != "" || a.APIKeySHA256 != ""
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SQLitePath      string        `yaml:"sqlite_path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + strconv.Itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

// Addr returns the first configured address, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if len(r.Addresses) == 0 {
		return ""
	}
	return r.Addresses[0]
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int64         `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
	// FailOpen admits requests when the counter store cannot be reached.
	FailOpen bool `yaml:"fail_open"`
}

type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	DocumentTTL time.Duration `yaml:"document_ttl"`
	FlowTTL     time.Duration `yaml:"flow_ttl"`
}

// LLM provider kinds accepted in llm.provider.
const (
	ProviderNone             = ""
	ProviderOllama           = "ollama"
	ProviderGenerate         = "generate"
	ProviderOpenAICompatible = "openai_compatible"
	ProviderChat             = "chat"
)

type LLMConfig struct {
	Provider       string               `yaml:"provider"`
	BaseURL        string               `yaml:"base_url"`
	APIKey         string               `yaml:"api_key"`
	Model          string               `yaml:"model"`
	Timeout        time.Duration        `yaml:"timeout"`
	MaxRetries     int                  `yaml:"max_retries"`
	BackoffMin     time.Duration        `yaml:"backoff_min"`
	BackoffMax     time.Duration        `yaml:"backoff_max"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failed calls that opens the breaker. 0 disables it.
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

type FilterConfig struct {
	MaxInputLength    int                   `yaml:"max_input_length"`
	MaxQuestionLength int                   `yaml:"max_question_length"`
	Injection         InjectionFilterConfig `yaml:"injection"`
	Secrets           SecretsFilterConfig   `yaml:"secrets"`
	Policy            PolicyFilterConfig    `yaml:"policy"`
}

type InjectionFilterConfig struct {
	Enabled bool `yaml:"enabled"`
}

type SecretsFilterConfig struct {
	Enabled bool `yaml:"enabled"`
	// Block rejects inputs carrying credentials instead of flagging them.
	Block bool `yaml:"block"`
}

type PolicyFilterConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	GRPCHealthAddr string `yaml:"grpc_health_addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Environment: "local",
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			APIPrefix:        "/api/v1",
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Tenant: TenantConfig{
			HeaderName:    "X-Tenant-ID",
			DefaultTenant: "default",
		},
		Auth: AuthConfig{
			HeaderName:  "X-API-Key",
			PublicPaths: []string{"/metrics", "/api/v1/health"},
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            5432,
			Name:            "docai",
			User:            "docai",
			SQLitePath:      "docai.db",
			AutoMigrate:     true,
			MaxOpenConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize: 50,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerWindow: 120,
			Window:            time.Minute,
			FailOpen:          true,
		},
		Cache: CacheConfig{
			Enabled:     true,
			DocumentTTL: 300 * time.Second,
		},
		LLM: LLMConfig{
			Provider:   ProviderNone,
			Model:      "llama3.2",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
			BackoffMin: 500 * time.Millisecond,
			BackoffMax: 5 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				RecoveryTimeout:  30 * time.Second,
			},
		},
		Filter: FilterConfig{
			MaxInputLength:    50000,
			MaxQuestionLength: 2000,
			Injection:         InjectionFilterConfig{Enabled: true},
			Secrets:           SecretsFilterConfig{Enabled: true},
			Policy: PolicyFilterConfig{
				Enabled:           false,
				BundlePath:        "policies",
				EvaluationTimeout: 100 * time.Millisecond,
			},
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}

// Validate checks settings that would otherwise fail later at request time.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderNone, ProviderOllama, ProviderGenerate, ProviderOpenAICompatible, ProviderChat:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Provider != ProviderNone && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required when llm.provider is %q", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.LLM.BackoffMin > c.LLM.BackoffMax {
		return fmt.Errorf("llm.backoff_min (%s) exceeds llm.backoff_max (%s)", c.LLM.BackoffMin, c.LLM.BackoffMax)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window < time.Second) {
		return fmt.Errorf("rate_limit needs requests_per_window > 0 and window >= 1s")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Filter.MaxInputLength <= 0 || c.Filter.MaxQuestionLength <= 0 {
		return fmt.Errorf("filter max lengths must be positive")
	}
	return nil
}
