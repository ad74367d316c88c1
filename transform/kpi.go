package transform

import (
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/table"
)

// KPIConfig names the columns of the specific power consumption KPI.
type KPIConfig struct {
	PowerColumn      string `mapstructure:"power_column" json:"power_column"`
	ThroughputColumn string `mapstructure:"throughput_column" json:"throughput_column"`
	Output           string `mapstructure:"output" json:"output"`
}

// ApplyDefaults sets the plant's standard column names.
func (c *KPIConfig) ApplyDefaults() {
	if c.PowerColumn == "" {
		c.PowerColumn = "mill_power_kwh"
	}
	if c.ThroughputColumn == "" {
		c.ThroughputColumn = "throughput_tph"
	}
	if c.Output == "" {
		c.Output = "specific_power_consumption"
	}
}

// CreateKPIs adds power / throughput as a Float column. When either input
// column is missing the table is returned unchanged. Rows with a null input or
// zero throughput get a null KPI.
func CreateKPIs(t *table.Table, cfg KPIConfig) (*table.Table, error) {
	cfg.ApplyDefaults()
	power, okP := t.Column(cfg.PowerColumn)
	throughput, okT := t.Column(cfg.ThroughputColumn)
	if !okP || !okT {
		log().Warn("kpi input columns missing", logger.Fields(logger.FieldTable, t.Name,
			"power_column", cfg.PowerColumn, "throughput_column", cfg.ThroughputColumn))
		return t.Clone(), nil
	}
	if _, err := numericColumn(t, cfg.PowerColumn); err != nil {
		return nil, err
	}
	if _, err := numericColumn(t, cfg.ThroughputColumn); err != nil {
		return nil, err
	}

	values := make([]any, t.Len())
	zero := 0
	for i := range values {
		p, okP := power.Float(i)
		q, okQ := throughput.Float(i)
		if !okP || !okQ {
			continue
		}
		if q == 0 {
			zero++
			continue
		}
		values[i] = p / q
	}
	if zero > 0 {
		log().Warn("zero throughput, kpi left null", logger.Fields(logger.FieldTable, t.Name, "rows", zero))
	}

	out := t.Clone()
	if err := out.SetColumn(table.NewColumn(cfg.Output, table.Float, values)); err != nil {
		return nil, err
	}
	log().Info("kpi created", logger.Fields(logger.FieldTable, t.Name, logger.FieldColumn, cfg.Output))
	return out, nil
}
