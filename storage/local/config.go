package local

import (
	"errors"
	"fmt"
	"os"
)

// DefaultBasePath resolves storage paths against the working directory.
const DefaultBasePath = "."

// Config is the storage.local block.
type Config struct {
	// BasePath is the root every storage path is relative to. NewStorage
	// creates it when missing.
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
}

// Validate rejects an empty base path and one that exists as a file.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return errors.New("local: base_path is required")
	}
	info, err := os.Stat(c.BasePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("local: base_path: %w", err)
	case !info.IsDir():
		return fmt.Errorf("local: base_path %s is not a directory", c.BasePath)
	}
	return nil
}

// Location is the base path shown in startup summaries.
func (c *Config) Location() string { return c.BasePath }
