package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/cemint/cemint-insights/alert"
	"github.com/cemint/cemint-insights/component"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/storage/local"
	"github.com/cemint/cemint-insights/transform"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ServiceName, cfg.Name)
	assert.Equal(t, storage.ProviderLocal, cfg.Storage.Provider)
	assert.Equal(t, "schemas", cfg.SchemaDir)
	assert.Equal(t, "raw", cfg.InputDir)
	assert.Equal(t, etl.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "minmax", cfg.Pipeline.NormalizeMethod)
	assert.Equal(t, "basic", cfg.Pipeline.Mode)
	assert.Equal(t, alert.DefaultThreshold, cfg.Alert.Threshold)
	assert.IsType(t, &local.Config{}, cfg.Storage.ProviderConfig())
	assert.Equal(t, alert.DefaultTable, cfg.Alert.ArchiveTable)
	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, observability.DefaultEndpoint, cfg.Observability.Endpoint)

	cfg.Version, cfg.Environment = "1.2.0", "production"
	assert.Equal(t, observability.Service{Name: ServiceName, Version: "1.2.0", Environment: "production"}, cfg.Telemetry())
}

func TestConfigValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"bad method":   func(c *Config) { c.Pipeline.NormalizeMethod = "robust" },
		"bad fill":     func(c *Config) { c.Pipeline.FillMethod = "mode" },
		"bad mode":     func(c *Config) { c.Pipeline.Mode = "turbo" },
		"bad format":   func(c *Config) { c.Pipeline.Formats = []string{"xlsx"} },
		"clip order":   func(c *Config) { c.Pipeline.ClipLower, c.Pipeline.ClipUpper = 90, 10 },
		"s3 no bucket": func(c *Config) { c.Storage.Provider = storage.ProviderS3 },
		"warehouse":    func(c *Config) { c.Warehouse.Enabled = true },
		"history":      func(c *Config) { c.History.Enabled, c.History.LogLevel = true, "verbose" },
		"telemetry":    func(c *Config) { c.Observability.Enabled, c.Observability.SampleRate = true, 2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPipelineETL(t *testing.T) {
	p := PipelineConfig{NormalizeMethod: "standard", FillMethod: "median", Mode: "full", Strict: true, PowerColumn: "kiln_power"}
	p.ApplyDefaults()

	cfg, err := p.ETL("out")
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, etl.ModeFull, cfg.Mode)
	assert.True(t, cfg.Strict)
	assert.Equal(t, transform.Standard, cfg.Transform.Method)
	assert.Equal(t, transform.FillMedian, cfg.Transform.Fill)
	assert.Equal(t, "kiln_power", cfg.Transform.KPI.PowerColumn)
	assert.Equal(t, "throughput_tph", cfg.Transform.KPI.ThroughputColumn)
	assert.Equal(t, transform.DefaultAnomalyThreshold, cfg.Transform.AnomalyThreshold)
}

func TestNewServices(t *testing.T) {
	dir := t.TempDir()
	store, err := local.NewStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, storage.WriteFile(ctx, store, "schemas/kiln_schema.json",
		[]byte(`{"fields": [{"name": "timestamp", "type": "datetime"}, {"name": "kiln_temp_c", "type": "float"}]}`)))

	var cfg Config
	cfg.ApplyDefaults()
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	svc, err := NewServices(ctx, &cfg, store, Deps{Metrics: metrics}, nil)
	require.NoError(t, err)
	defer svc.Close()
	assert.Same(t, metrics, svc.Metrics)

	assert.Equal(t, []string{"kiln"}, svc.Schemas.Stages())
	assert.Equal(t, transform.MinMax, svc.Method)
	assert.NotNil(t, svc.Orchestrator)
	assert.Equal(t, alert.DefaultThreshold, svc.Alerts.Threshold())
}

func TestServicesComponent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	var cfg Config
	cfg.Storage.Local.BasePath = dir
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	storeComp := storage.NewComponent(cfg.Storage.Config, cfg.Storage.ProviderConfig(), nil)
	require.NoError(t, storeComp.Start(ctx))

	c := NewServicesComponent(&cfg, storeComp, nil, nil)
	assert.Equal(t, component.StatusUnhealthy, c.Health(ctx).Status)

	var seen *Services
	c.OnReady(func(s *Services) error { seen = s; return nil })
	require.NoError(t, c.Start(ctx))
	assert.Same(t, seen, c.Services())
	assert.Equal(t, component.StatusDegraded, c.Health(ctx).Status, "no schemas uploaded")

	require.NoError(t, c.Stop(ctx))
	assert.Nil(t, c.Services())
}

func TestServicesComponentWithHistory(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	var cfg Config
	cfg.Storage.Local.BasePath = dir
	cfg.History = runlog.Config{Enabled: true, DSN: filepath.Join(dir, "history.db")}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	storeComp := storage.NewComponent(cfg.Storage.Config, cfg.Storage.ProviderConfig(), nil)
	require.NoError(t, storeComp.Start(ctx))
	history := runlog.NewComponent(cfg.History, nil)
	require.NoError(t, history.Start(ctx))
	defer history.Stop(ctx)

	c := NewServicesComponent(&cfg, storeComp, nil, nil).WithHistory(history)
	require.NoError(t, c.Start(ctx))
	defer c.Stop(ctx)
	assert.Same(t, history.Store(), c.Services().History)
}
