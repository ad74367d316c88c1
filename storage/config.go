package storage

import (
	"fmt"
	"slices"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderGCS   = "gcs"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = ProviderLocal

// Config selects the storage backend. Provider-specific settings travel
// separately as providerCfg (*local.Config, *s3.Config, *gcs.Config).
type Config struct {
	Provider string `mapstructure:"provider" json:"provider"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
}

// Validate checks that the provider is one this build knows about.
func (c *Config) Validate() error {
	valid := []string{ProviderLocal, ProviderS3, ProviderGCS}
	if !slices.Contains(valid, c.Provider) {
		return fmt.Errorf("storage: unsupported provider %q (allowed: %v)", c.Provider, valid)
	}
	return nil
}
