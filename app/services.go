package app

import (
	"context"

	"github.com/cemint/cemint-insights/alert"
	"github.com/cemint/cemint-insights/artifact"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/loader"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/model"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/runlog"
	"github.com/cemint/cemint-insights/schema"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/transform"
	"github.com/cemint/cemint-insights/warehouse"
)

// Services is the business layer built on top of a started storage backend.
type Services struct {
	Store        storage.Storage
	Loader       *loader.Loader
	Schemas      *schema.Registry
	Writer       *artifact.Writer
	Orchestrator *etl.Orchestrator
	Models       *model.Registry
	Alerts       *alert.Service
	History      *runlog.Store // nil when history is disabled
	Metrics      *observability.Metrics
	Method       transform.Method
	ETL          etl.Config

	sink *warehouse.BigQuerySink
}

// Deps are the optional collaborators started before Services. Nil fields
// switch the matching feature off.
type Deps struct {
	Alerts  alert.Publisher
	History *runlog.Store
	Metrics *observability.Metrics
}

// NewServices loads the schema registry and wires loader, orchestrator,
// model registry and alert service. With the warehouse enabled, processed
// tables and alerts are also written to BigQuery.
func NewServices(ctx context.Context, cfg *Config, store storage.Storage, deps Deps, log *logger.Logger) (*Services, error) {
	if log == nil {
		log = logger.NewNop()
	}
	etlCfg, err := cfg.Pipeline.ETL(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	formats, err := cfg.Pipeline.ArtifactFormats()
	if err != nil {
		return nil, err
	}
	schemas, err := schema.LoadRegistry(ctx, store, cfg.SchemaDir, log)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Store:   store,
		Loader:  loader.New(store, log, loader.WithSchemas(schemas)),
		Schemas: schemas,
		Writer:  artifact.NewWriter(store, formats, log),
		Models:  model.NewRegistry(store, cfg.ModelsDir, log),
		History: deps.History,
		Metrics: deps.Metrics,
		Method:  etlCfg.Transform.Method,
		ETL:     etlCfg,
	}

	opts := []etl.Option{etl.WithMetrics(deps.Metrics)}
	publisher := deps.Alerts
	if cfg.Warehouse.Enabled {
		sink, err := warehouse.NewBigQuerySink(ctx, cfg.Warehouse, log)
		if err != nil {
			return nil, err
		}
		s.sink = sink
		opts = append(opts, etl.WithSink(sink))
		publisher = alert.NewFanout(deps.Alerts, alert.NewSinkPublisher(sink, cfg.Alert.ArchiveTable))
	}
	s.Alerts = alert.NewService(publisher, cfg.Alert.Threshold, log)
	if deps.History != nil {
		opts = append(opts, etl.WithRecorder(deps.History))
	}
	s.Orchestrator = etl.New(s.Loader, schemas, s.Writer, etlCfg, log, opts...)
	return s, nil
}

// Close releases the warehouse client, if any.
func (s *Services) Close() error {
	if s.sink != nil {
		return s.sink.Close()
	}
	return nil
}
