package warehouse

import "fmt"

// DefaultBatchSize bounds the rows sent in one streaming insert request.
const DefaultBatchSize = 500

// Config holds the BigQuery sink settings.
type Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	ProjectID       string `mapstructure:"project_id"`
	Dataset         string `mapstructure:"dataset"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
	BatchSize       int    `mapstructure:"batch_size"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Validate checks the configuration when the sink is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ProjectID == "" {
		return fmt.Errorf("warehouse: project_id is required")
	}
	if c.Dataset == "" {
		return fmt.Errorf("warehouse: dataset is required")
	}
	return nil
}
