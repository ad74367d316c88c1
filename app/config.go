// Package app holds the cemint configuration and wires the services every
// command shares.
package app

import (
	"fmt"

	"github.com/cemint/cemint-insights/alert"
	"github.com/cemint/cemint-insights/alert/kafka"
	"github.com/cemint/cemint-insights/artifact"
	"github.com/cemint/cemint-insights/config"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/server"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/storage/gcs"
	"github.com/cemint/cemint-insights/storage/local"
	"github.com/cemint/cemint-insights/storage/s3"
	"github.com/cemint/cemint-insights/transform"
	"github.com/cemint/cemint-insights/validation"
	"github.com/cemint/cemint-insights/warehouse"
)

// ServiceName locates cmd/cemint/config.yml and names the logger.
const ServiceName = "cemint"

// Config is the full cemint configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Storage   StorageConfig    `mapstructure:"storage"`
	SchemaDir string           `mapstructure:"schema_dir" validate:"required"`
	InputDir  string           `mapstructure:"input_dir" validate:"required"`
	OutputDir string           `mapstructure:"output_dir" validate:"required"`
	ModelsDir string           `mapstructure:"models_dir" validate:"required"`
	Pipeline  PipelineConfig   `mapstructure:"pipeline"`
	Server    server.Config    `mapstructure:"server"`
	Alert     AlertConfig      `mapstructure:"alert"`
	Warehouse warehouse.Config `mapstructure:"warehouse"`
	History   runlog.Config    `mapstructure:"history"`

	Observability observability.Config `mapstructure:"observability"`
}

// StorageConfig selects the backend and carries every provider block.
type StorageConfig struct {
	storage.Config `mapstructure:",squash"`
	Local          local.Config `mapstructure:"local"`
	S3             s3.Config    `mapstructure:"s3"`
	GCS            gcs.Config   `mapstructure:"gcs"`
}

// ProviderConfig returns the block for the selected provider.
func (c *StorageConfig) ProviderConfig() any {
	switch c.Provider {
	case storage.ProviderS3:
		return &c.S3
	case storage.ProviderGCS:
		return &c.GCS
	}
	return &c.Local
}

// PipelineConfig is the user-facing form of etl.Config.
type PipelineConfig struct {
	NormalizeMethod  string   `mapstructure:"normalize_method" validate:"oneof=minmax standard"`
	FillMethod       string   `mapstructure:"fill_method" validate:"oneof=mean median zero"`
	Strict           bool     `mapstructure:"strict"`
	Mode             string   `mapstructure:"mode" validate:"oneof=basic full"`
	TimestampColumn  string   `mapstructure:"timestamp_column"`
	AnomalyThreshold float64  `mapstructure:"anomaly_threshold" validate:"gte=0"`
	ClipColumns      []string `mapstructure:"clip_columns"`
	ClipLower        float64  `mapstructure:"clip_lower" validate:"gte=0,lte=100"`
	ClipUpper        float64  `mapstructure:"clip_upper" validate:"gte=0,lte=100"`
	ScaleColumns     []string `mapstructure:"scale_columns"`
	Formats          []string `mapstructure:"formats" validate:"dive,oneof=csv parquet"`
	PowerColumn      string   `mapstructure:"power_column"`
	ThroughputColumn string   `mapstructure:"throughput_column"`
}

// AlertConfig controls efficiency alerting on predictions. Model names the
// model whose predictions are watched; empty watches all. When the warehouse
// is enabled, alerts are also archived to ArchiveTable.
type AlertConfig struct {
	Enabled      bool         `mapstructure:"enabled"`
	Threshold    float64      `mapstructure:"threshold" validate:"gte=0"`
	Model        string       `mapstructure:"model"`
	ArchiveTable string       `mapstructure:"archive_table"`
	Kafka        kafka.Config `mapstructure:"kafka"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Storage.Local.ApplyDefaults()
	c.Storage.S3.ApplyDefaults()
	if c.SchemaDir == "" {
		c.SchemaDir = "schemas"
	}
	if c.InputDir == "" {
		c.InputDir = "raw"
	}
	if c.OutputDir == "" {
		c.OutputDir = etl.DefaultOutputDir
	}
	if c.ModelsDir == "" {
		c.ModelsDir = "models"
	}
	c.Pipeline.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Alert.Threshold == 0 {
		c.Alert.Threshold = alert.DefaultThreshold
	}
	if c.Alert.ArchiveTable == "" {
		c.Alert.ArchiveTable = alert.DefaultTable
	}
	c.Alert.Kafka.Enabled = c.Alert.Enabled
	c.Alert.Kafka.ApplyDefaults()
	c.Warehouse.ApplyDefaults()
	c.History.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// ApplyDefaults fills the pipeline settings.
func (p *PipelineConfig) ApplyDefaults() {
	if p.NormalizeMethod == "" {
		p.NormalizeMethod = transform.MinMax.String()
	}
	if p.FillMethod == "" {
		p.FillMethod = transform.FillMean.String()
	}
	if p.Mode == "" {
		p.Mode = string(etl.ModeBasic)
	}
	if p.ClipLower == 0 && p.ClipUpper == 0 {
		p.ClipLower, p.ClipUpper = transform.DefaultClipLower, transform.DefaultClipUpper
	}
}

// Validate checks struct tags, then every sub-config.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if v, ok := c.Storage.ProviderConfig().(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Pipeline.ClipLower > c.Pipeline.ClipUpper {
		return fmt.Errorf("config: pipeline.clip_lower %.2f exceeds clip_upper %.2f", c.Pipeline.ClipLower, c.Pipeline.ClipUpper)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Alert.Enabled {
		if err := c.Alert.Kafka.Validate(); err != nil {
			return err
		}
	}
	if err := c.Warehouse.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}

// Telemetry names the service resource spans and metrics are attached to.
func (c *Config) Telemetry() observability.Service {
	return observability.Service{Name: c.Name, Version: c.Version, Environment: c.Environment}
}

// Method returns the configured normalization method.
func (p *PipelineConfig) Method() (transform.Method, error) {
	return transform.ParseMethod(p.NormalizeMethod)
}

// ETL converts the pipeline settings into an orchestrator config writing
// under outputDir.
func (p *PipelineConfig) ETL(outputDir string) (etl.Config, error) {
	method, err := p.Method()
	if err != nil {
		return etl.Config{}, err
	}
	fill, err := transform.ParseFillStrategy(p.FillMethod)
	if err != nil {
		return etl.Config{}, err
	}
	cfg := etl.Config{
		OutputDir:       outputDir,
		Strict:          p.Strict,
		Mode:            etl.Mode(p.Mode),
		TimestampColumn: p.TimestampColumn,
		Transform: transform.Config{
			Method:           method,
			Fill:             fill,
			AnomalyThreshold: p.AnomalyThreshold,
			ClipColumns:      p.ClipColumns,
			ClipLower:        p.ClipLower,
			ClipUpper:        p.ClipUpper,
			ScaleColumns:     p.ScaleColumns,
			KPI: transform.KPIConfig{
				PowerColumn:      p.PowerColumn,
				ThroughputColumn: p.ThroughputColumn,
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// ArtifactFormats resolves the artifact formats.
func (p *PipelineConfig) ArtifactFormats() ([]artifact.Format, error) {
	return artifact.ParseFormats(p.Formats)
}
