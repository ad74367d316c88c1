package etl

import (
	"fmt"

	"github.com/cemint/cemint-insights/schema"
	"github.com/cemint/cemint-insights/transform"
)

// Mode selects the per-stage transform chain.
type Mode string

const (
	// ModeBasic adds time features then normalizes.
	ModeBasic Mode = "basic"
	// ModeFull runs the whole transform pipeline.
	ModeFull Mode = "full"
)

// DefaultOutputDir is where run artifacts go when OutputDir is unset.
const DefaultOutputDir = "processed"

// Config parameterizes an Orchestrator.
type Config struct {
	OutputDir       string
	Strict          bool
	Mode            Mode
	TimestampColumn string
	// Transform configures ModeFull. Its Method is overridden per run.
	Transform transform.Config
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Mode == "" {
		c.Mode = ModeBasic
	}
	if c.TimestampColumn == "" {
		c.TimestampColumn = schema.TimestampColumn
	}
	c.Transform.TimestampColumn = c.TimestampColumn
	c.Transform.ApplyDefaults()
}

// Validate rejects unknown modes.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBasic, ModeFull:
		return nil
	}
	return fmt.Errorf("etl: unknown mode %q (use %s or %s)", c.Mode, ModeBasic, ModeFull)
}
