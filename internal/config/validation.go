package config

import (
	"fmt"
	"net"
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate checks the configuration and returns the first problem found.
// Errors wrap the package sentinel errors for errors.Is() checks.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w", ErrInvalidListenAddr)
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidListenAddr, c.ListenAddr, err)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 65536 {
		return fmt.Errorf("%w: %d (must be in [1, 65536])", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidTopK, c.TopK, MaxTopK)
	}

	if c.ContextDocs < 1 || c.ContextDocs > c.TopK {
		return fmt.Errorf("%w: %d (must be in [1, top_k])", ErrInvalidContextDocs, c.ContextDocs)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}

	if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	// Object store is optional, but if an endpoint is set the credentials and
	// bucket must come with it.
	if c.ObjectEndpoint != "" {
		if c.ObjectAccessKey == "" || c.ObjectSecretKey == "" {
			return fmt.Errorf("%w: access and secret keys required when object_endpoint is set", ErrIncompleteObjectStore)
		}
		if c.ObjectBucket == "" {
			return fmt.Errorf("%w: bucket required when object_endpoint is set", ErrIncompleteObjectStore)
		}
	}

	return nil
}
