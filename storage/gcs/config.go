package gcs

import "errors"

// Config holds Google Cloud Storage configuration.
type Config struct {
	// Bucket is the GCS bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// CredentialsFile is a service account key file. Empty uses
	// Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`

	// Endpoint overrides the API endpoint (e.g. a fake-gcs-server).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
}

// ApplyDefaults is a no-op; GCS needs no defaults beyond ADC.
func (c *Config) ApplyDefaults() {}

// Validate checks that the GCS configuration is valid.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("gcs: bucket is required")
	}
	return nil
}

// Location returns the bucket URI used in startup summaries.
func (c *Config) Location() string { return "gs://" + c.Bucket }
