// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.proposalkb/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Storage: PostgreSQL connection (see storage.go)
//   - Embedding: Gemini embedding model and output dimensionality
//   - Email: SMTP delivery of validation requests (optional)
//   - Teams: Microsoft Graph delivery of validation requests (optional)
//   - Server: MCP transport selection (stdio or streamable HTTP)
//
// Validation is fail-fast: Load returns an error naming every missing
// required setting, so a broken deployment is caught at startup rather than
// on the first tool call.
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

const (
	// DefaultEmbedderModel is the Gemini embedding model used when none is
	// configured. gemini-embedding-001 outputs 3072 dimensions by default but
	// supports truncation via OutputDimensionality; the pgvector schema uses
	// EmbedderDimension (768).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbedderDimension matches the vector(768) columns in the schema.
	DefaultEmbedderDimension = 768

	// DefaultSMTPPort is the submission port used when smtp_port is unset.
	DefaultSMTPPort = 587
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secrets (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Embedding configuration
	GeminiAPIKey      string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // SENSITIVE
	EmbedderModel     string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbedderDimension int    `mapstructure:"embedder_dimension" json:"embedder_dimension"`

	// Email configuration (optional; send_email_validation fails fast when
	// SMTPHost is empty)
	SMTPHost     string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port" json:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user" json:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password" json:"smtp_password"` // SENSITIVE
	EmailFrom    string `mapstructure:"email_from" json:"email_from"`

	// Validation portal base URL embedded in outbound email links.
	PortalBaseURL string `mapstructure:"portal_base_url" json:"portal_base_url"`

	// Teams configuration (optional; send_teams_validation fails fast when
	// TeamsAccessToken is empty)
	TeamsAccessToken   string `mapstructure:"teams_access_token" json:"teams_access_token"`     // SENSITIVE
	TeamsWebhookSecret string `mapstructure:"teams_webhook_secret" json:"teams_webhook_secret"` // SENSITIVE

	// Server configuration
	StatelessHTTP bool   `mapstructure:"stateless_http" json:"stateless_http"`
	HTTPAddr      string `mapstructure:"http_addr" json:"http_addr"`

	// DefaultTenantID is applied when a tool call carries no tenant_id.
	DefaultTenantID string `mapstructure:"default_tenant_id" json:"default_tenant_id"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
// Load does not call Validate; commands that need a fully valid runtime
// configuration (serve) validate explicitly, while migrate runs with the
// database settings alone.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".proposalkb")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; env vars and defaults apply.
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

	// DATABASE_URL has the highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "proposalkb")
	v.SetDefault("postgres_db_name", "proposalkb")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Embedding defaults
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedder_dimension", DefaultEmbedderDimension)

	// Email defaults
	v.SetDefault("smtp_port", DefaultSMTPPort)
	v.SetDefault("email_from", "proposals@example.com")
	v.SetDefault("portal_base_url", "https://your-portal.com")

	// Server defaults
	v.SetDefault("stateless_http", true)
	v.SetDefault("http_addr", ":8080")

	// Logging defaults
	v.SetDefault("log_level", "info")
}

// bindEnvVariables binds environment variables explicitly. Secrets are only
// accepted from the environment, never from the config file search path.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("postgres_host", "POSTGRES_HOST")
	mustBind("postgres_port", "POSTGRES_PORT")
	mustBind("postgres_user", "POSTGRES_USER")
	mustBind("postgres_password", "POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "POSTGRES_DB_NAME")
	mustBind("postgres_ssl_mode", "POSTGRES_SSL_MODE")

	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("embedder_model", "EMBEDDER_MODEL")
	mustBind("embedder_dimension", "EMBEDDER_DIMENSION")

	mustBind("smtp_host", "SMTP_HOST")
	mustBind("smtp_port", "SMTP_PORT")
	mustBind("smtp_user", "SMTP_USER")
	mustBind("smtp_password", "SMTP_PASSWORD")
	mustBind("email_from", "EMAIL_FROM")
	mustBind("portal_base_url", "PORTAL_BASE_URL")

	mustBind("teams_access_token", "TEAMS_ACCESS_TOKEN")
	mustBind("teams_webhook_secret", "TEAMS_WEBHOOK_SECRET")

	mustBind("stateless_http", "STATELESS_HTTP")
	mustBind("http_addr", "HTTP_ADDR")
	mustBind("default_tenant_id", "DEFAULT_TENANT_ID")

	mustBind("log_level", "LOG_LEVEL")
	mustBind("log_json", "LOG_JSON")
}

// EmailConfigured reports whether SMTP delivery is available.
func (c *Config) EmailConfigured() bool {
	return c.SMTPHost != ""
}

// TeamsConfigured reports whether Teams delivery is available.
func (c *Config) TeamsConfigured() bool {
	return c.TeamsAccessToken != ""
}

// MarshalJSON masks sensitive fields so a dumped config never leaks secrets.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(*c)

	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = "***"
	}
	if masked.SMTPPassword != "" {
		masked.SMTPPassword = "***"
	}
	if masked.TeamsAccessToken != "" {
		masked.TeamsAccessToken = "***"
	}
	if masked.TeamsWebhookSecret != "" {
		masked.TeamsWebhookSecret = "***"
	}

	return json.Marshal(masked)
}
