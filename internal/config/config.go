// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest):
//  1. Environment variables (runtime override)
//  2. Config file (~/.perch/config.yaml or ./config.yaml)
//  3. Default values
//
// Categories:
//   - Server: listen address, CORS, proxy trust, rate limiting
//   - Postgres: connection settings (see storage.go), DATABASE_URL override
//   - Assistant: Gemini model, temperature, max tokens
//   - Retrieval: top-K and context block count
//   - Objects: MinIO endpoint and credentials for uploaded documents
//   - Tracing: optional OTLP export endpoint
//
// Sensitive values (postgres password, object store secret key) are masked in
// MarshalJSON and String. Validation is fail-fast with sentinel errors so
// callers can use errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidListenAddr indicates the server listen address is malformed.
	ErrInvalidListenAddr = errors.New("invalid listen address")

	// ErrInvalidModelName indicates the generation model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidContextDocs indicates context_docs is out of range.
	ErrInvalidContextDocs = errors.New("invalid retrieval context_docs")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unknown sslmode value.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrIncompleteObjectStore indicates a partially configured MinIO section.
	ErrIncompleteObjectStore = errors.New("incomplete object store configuration")
)

// Retrieval defaults. TopK is how many documents a search returns;
// ContextDocs is how many of those are concatenated into the prompt.
const (
	DefaultTopK        = 5
	DefaultContextDocs = 3
	MaxTopK            = 50
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; when adding a new
// secret field, update MarshalJSON too.
type Config struct {
	// Server configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Assistant (generation) configuration. The Gemini API key is read from
	// the GEMINI_API_KEY environment variable by the genai client, never
	// stored here. An empty key switches the assistant to simulation mode.
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Retrieval configuration
	TopK        int `mapstructure:"top_k" json:"top_k"`
	ContextDocs int `mapstructure:"context_docs" json:"context_docs"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Object store for uploaded documents. Empty endpoint disables uploads
	// (URL ingestion and text indexing still work).
	ObjectEndpoint  string `mapstructure:"object_endpoint" json:"object_endpoint"`
	ObjectAccessKey string `mapstructure:"object_access_key" json:"object_access_key"`
	ObjectSecretKey string `mapstructure:"object_secret_key" json:"object_secret_key"` // SENSITIVE: masked in MarshalJSON
	ObjectBucket    string `mapstructure:"object_bucket" json:"object_bucket"`
	ObjectUseSSL    bool   `mapstructure:"object_use_ssl" json:"object_use_ssl"`

	// Tracing configuration. Empty endpoint disables trace export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	Environment  string `mapstructure:"environment" json:"environment"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".perch")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL is the highest-priority source for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 0) // 0 = server default

	// Assistant defaults
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)

	// Retrieval defaults
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("context_docs", DefaultContextDocs)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "perch")
	v.SetDefault("postgres_password", "perch_dev_password")
	v.SetDefault("postgres_db_name", "perch")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Object store defaults (endpoint empty = uploads disabled)
	v.SetDefault("object_bucket", "perch-documents")
	v.SetDefault("object_use_ssl", false)

	// Tracing defaults
	v.SetDefault("environment", "dev")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly rather than using
// AutomaticEnv, so the full set of recognized variables is auditable here.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded key/name pairs cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("listen_addr", "PERCH_LISTEN_ADDR")
	mustBind("cors_origins", "PERCH_CORS_ORIGINS")
	mustBind("trust_proxy", "PERCH_TRUST_PROXY")
	mustBind("rate_burst", "PERCH_RATE_BURST")
	mustBind("model_name", "PERCH_MODEL_NAME")
	mustBind("object_endpoint", "PERCH_OBJECT_ENDPOINT")
	mustBind("object_access_key", "PERCH_OBJECT_ACCESS_KEY")
	mustBind("object_secret_key", "PERCH_OBJECT_SECRET_KEY")
	mustBind("otlp_endpoint", "PERCH_OTLP_ENDPOINT")
	mustBind("log_level", "PERCH_LOG_LEVEL")

	// NOTE: GEMINI_API_KEY is read directly by the genai client, not via viper.
	// NOTE: DATABASE_URL is parsed separately in parseDatabaseURL.
}

// maskedValue is the placeholder for masked secrets. Full-width blocks avoid
// accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Secrets of 8 chars or fewer are
// fully masked; longer ones keep the first and last two characters for debug
// utility. This guards against accidental logging, nothing more.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.ObjectSecretKey = maskSecret(a.ObjectSecretKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// ObjectStoreEnabled reports whether uploaded documents are stored in MinIO.
func (c *Config) ObjectStoreEnabled() bool {
	return c.ObjectEndpoint != ""
}
