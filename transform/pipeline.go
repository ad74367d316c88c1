package transform

import (
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/table"
)

// Config parameterizes Pipeline.
type Config struct {
	Method           Method
	Fill             FillStrategy
	TimestampColumn  string
	AnomalyThreshold float64
	ClipColumns      []string
	ClipLower        float64
	ClipUpper        float64
	ScaleColumns     []string
	KPI              KPIConfig
}

// DefaultConfig returns min-max normalization, mean filling and the default
// anomaly threshold over the "timestamp" column.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.TimestampColumn == "" {
		c.TimestampColumn = "timestamp"
	}
	if c.AnomalyThreshold <= 0 {
		c.AnomalyThreshold = DefaultAnomalyThreshold
	}
	if c.ClipLower == 0 && c.ClipUpper == 0 {
		c.ClipLower, c.ClipUpper = DefaultClipLower, DefaultClipUpper
	}
	c.KPI.ApplyDefaults()
}

// Pipeline runs fill, time features, normalization, anomaly detection,
// optional clipping, optional named scaling and KPI derivation, stopping at
// the first error. The returned scaler is the one fitted by normalization.
func Pipeline(t *table.Table, cfg Config) (*table.Table, *Scaler, error) {
	cfg.ApplyDefaults()
	log().Info("transform pipeline started", logger.Fields(logger.FieldTable, t.Name))

	out := FillMissingValues(t, cfg.Fill)

	out, err := AddTimeFeatures(out, cfg.TimestampColumn)
	if err != nil {
		return nil, nil, err
	}

	out, scaler, err := NormalizeFeatures(out, cfg.Method)
	if err != nil {
		return nil, nil, err
	}

	out = DetectAnomalies(out, cfg.AnomalyThreshold)

	if len(cfg.ClipColumns) > 0 {
		out = ClipOutliers(out, cfg.ClipColumns, cfg.ClipLower, cfg.ClipUpper)
	}

	if len(cfg.ScaleColumns) > 0 {
		if out, _, err = ScaleColumns(out, cfg.ScaleColumns, cfg.Method); err != nil {
			return nil, nil, err
		}
	}

	if out, err = CreateKPIs(out, cfg.KPI); err != nil {
		return nil, nil, err
	}

	log().Info("transform pipeline completed", logger.Fields(logger.FieldTable, t.Name, logger.FieldRows, out.Len()))
	return out, scaler, nil
}

// Preprocess is the reduced per-stage variant: time features then normalization.
func Preprocess(t *table.Table, timestampColumn string, method Method) (*table.Table, *Scaler, error) {
	out, err := AddTimeFeatures(t, timestampColumn)
	if err != nil {
		return nil, nil, err
	}
	return NormalizeFeatures(out, method)
}
