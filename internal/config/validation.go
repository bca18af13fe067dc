package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingRequired indicates one or more required settings are absent.
	ErrMissingRequired = errors.New("missing required configuration")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidSSLMode indicates the PostgreSQL SSL mode is not recognized.
	ErrInvalidSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidSMTPPort indicates the SMTP port is out of range.
	ErrInvalidSMTPPort = errors.New("invalid SMTP port")

	// ErrInvalidEmbedderDimension indicates the embedder dimensionality does
	// not match what the vector schema can store.
	ErrInvalidEmbedderDimension = errors.New("invalid embedder dimension")
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration, collecting every missing required
// setting into a single error so operators fix the deployment in one pass.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	var missing []string
	if c.PostgresHost == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if c.PostgresUser == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if c.PostgresPassword == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if c.PostgresDBName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidSSLMode, c.PostgresSSLMode)
	}
	if c.EmbedderDimension <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidEmbedderDimension, c.EmbedderDimension)
	}

	// SMTP is optional as a whole, but a configured host with a broken port
	// is a deployment mistake worth failing on.
	if c.SMTPHost != "" && (c.SMTPPort < 1 || c.SMTPPort > 65535) {
		return fmt.Errorf("%w: %d", ErrInvalidSMTPPort, c.SMTPPort)
	}

	return nil
}
