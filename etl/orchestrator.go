// Package etl runs the load, validate, transform and persist sequence over
// one timestamped run of plant data.
package etl

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cemint/cemint-insights/artifact"
	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/loader"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/pipeline"
	"github.com/cemint/cemint-insights/schema"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/transform"
	"github.com/cemint/cemint-insights/warehouse"
)

// RunResult is the outcome of one orchestrated run.
type RunResult struct {
	RunID      string
	InputDir   string
	OutputDir  string
	Tables     map[string]*table.Table
	Scalers    map[string]*transform.Scaler
	Validation map[string]schema.Report
	Artifacts  []string
}

// Stages returns the processed stage names, sorted.
func (r *RunResult) Stages() []string {
	names := make([]string, 0, len(r.Tables))
	for n := range r.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Outcome is what a Recorder learns about a run that got past loading.
type Outcome struct {
	RunID    string
	Scenario string
	InputDir string
	Method   transform.Method
	Started  time.Time
	Finished time.Time
	// Result is nil when Err is set.
	Result *RunResult
	Err    error
}

// Recorder keeps run history. A failing Recorder never fails the run.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSink streams every processed stage table to s after artifacts are saved.
func WithSink(s warehouse.Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithRecorder reports every run outcome to r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithMetrics records per-stage operation metrics into m. Spans are emitted
// on the global tracer either way.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator composes Loader, Validator and Transformer per stage.
type Orchestrator struct {
	loader   *loader.Loader
	registry *schema.Registry
	writer   *artifact.Writer
	sink     warehouse.Sink
	recorder Recorder
	metrics  *observability.Metrics
	cfg      Config
	log      *logger.Logger
}

// New creates an Orchestrator.
func New(l *loader.Loader, registry *schema.Registry, w *artifact.Writer, cfg Config, log *logger.Logger, opts ...Option) *Orchestrator {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	o := &Orchestrator{
		loader:   l,
		registry: registry,
		writer:   w,
		cfg:      cfg,
		log:      log.WithComponent("etl"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type stageResult struct {
	stage  string
	table  *table.Table
	scaler *transform.Scaler
	report schema.Report
}

// Run processes the run directory inputDir. Stages are transformed in sorted
// order and nothing is persisted unless every stage succeeds.
func (o *Orchestrator) Run(ctx context.Context, inputDir string, method transform.Method) (*RunResult, error) {
	run, err := o.loader.LoadRun(ctx, inputDir)
	if err != nil {
		return nil, err
	}
	return o.record(ctx, run, "", method)
}

// RunLatest processes the lexicographically last run under baseDir.
func (o *Orchestrator) RunLatest(ctx context.Context, baseDir string, method transform.Method) (*RunResult, error) {
	run, err := o.loader.LoadLatestRun(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	return o.record(ctx, run, "", method)
}

// RunScenario processes only the <name>_<scenario>.csv tables of the latest
// run under baseDir. Output goes to <run id>_<scenario>.
func (o *Orchestrator) RunScenario(ctx context.Context, baseDir, scenario string, method transform.Method) (*RunResult, error) {
	run, err := o.loader.LoadScenario(ctx, baseDir, scenario)
	if err != nil {
		return nil, err
	}
	if len(run.Stages) == 0 {
		return nil, apperrors.NoFilesFound(run.Dir).WithDetail("scenario", scenario)
	}
	run.ID += "_" + scenario
	return o.record(ctx, run, scenario, method)
}

// record processes run and hands the outcome to the recorder, if any.
func (o *Orchestrator) record(ctx context.Context, run *loader.Run, scenario string, method transform.Method) (*RunResult, error) {
	started := time.Now()
	res, err := o.process(ctx, run, method)
	if o.recorder == nil {
		return res, err
	}
	out := Outcome{
		RunID:    run.ID,
		Scenario: scenario,
		InputDir: run.Dir,
		Method:   method,
		Started:  started,
		Finished: time.Now(),
		Result:   res,
		Err:      err,
	}
	if recErr := o.recorder.Record(context.WithoutCancel(ctx), out); recErr != nil {
		o.log.Warn("run not recorded", logger.MergeWithError(logger.Fields(logger.FieldRunID, run.ID), recErr))
	}
	return res, err
}

func (o *Orchestrator) process(ctx context.Context, run *loader.Run, method transform.Method) (_ *RunResult, err error) {
	if o.metrics != nil {
		ctx = observability.ContextWithMetrics(ctx, o.metrics)
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, run.ID),
		attribute.String("cemint.method", method.String()),
		attribute.Int("cemint.stages", len(run.Stages)),
	))
	defer func() {
		observability.SetSpanError(ctx, err)
		span.End()
	}()

	start := time.Now()
	log := o.log.WithFields(logger.Fields(logger.FieldRunID, run.ID))
	log.Info("run started", logger.Fields(logger.FieldPath, run.Dir, "stages", len(run.Stages), "method", method.String()))

	stages := pipeline.Map(pipeline.FromSlice(run.StageNames()), func(ctx context.Context, stage string) (stageResult, error) {
		return o.processStage(ctx, log, run.ID, stage, run.Stages[stage], method)
	})
	stages = pipeline.Tap(stages, func(_ context.Context, r stageResult) error {
		log.Info("stage processed", logger.Fields(
			logger.FieldStage, r.stage, logger.FieldRows, r.table.Len(), "columns", r.table.Width()))
		return nil
	})
	results, err := pipeline.Collect(ctx, stages)
	if err != nil {
		log.Error("run aborted", logger.ErrorFields("process", err))
		return nil, err
	}

	res := &RunResult{
		RunID:      run.ID,
		InputDir:   run.Dir,
		OutputDir:  storage.Join(o.cfg.OutputDir, run.ID),
		Tables:     make(map[string]*table.Table, len(results)),
		Scalers:    make(map[string]*transform.Scaler, len(results)),
		Validation: make(map[string]schema.Report, len(results)),
	}
	for _, r := range results {
		res.Tables[r.stage] = r.table
		res.Scalers[r.stage] = r.scaler
		res.Validation[r.stage] = r.report

		paths, err := o.writer.WriteStage(ctx, res.OutputDir, r.stage, r.table, r.scaler)
		res.Artifacts = append(res.Artifacts, paths...)
		if err != nil {
			return nil, err
		}
	}

	if o.sink != nil {
		for _, r := range results {
			if err := o.writeSink(ctx, run.ID, r); err != nil {
				return nil, err
			}
		}
	}

	log.Info("run completed", logger.Fields(
		logger.FieldPath, res.OutputDir,
		"stages", len(results),
		"artifacts", len(res.Artifacts),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return res, nil
}

func (o *Orchestrator) writeSink(ctx context.Context, runID string, r stageResult) (err error) {
	ctx, op := observability.StartOperation(ctx, observability.OpSink, r.stage, attribute.String(observability.AttrRunID, runID))
	defer func() { op.End(ctx, err) }()
	op.SetRows(r.table.Len())
	return o.sink.Write(ctx, r.stage+"_processed", r.table)
}

func (o *Orchestrator) processStage(ctx context.Context, log *logger.Logger, runID, stage string, tables map[string]*table.Table, method transform.Method) (res stageResult, err error) {
	ctx, op := observability.StartOperation(ctx, observability.OpStage, stage, attribute.String(observability.AttrRunID, runID))
	defer func() {
		if res.table != nil {
			op.SetRows(res.table.Len())
		}
		op.End(ctx, err)
	}()
	log = log.WithFields(logger.Fields(logger.FieldStage, stage))

	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]*table.Table, len(names))
	for i, n := range names {
		parts[i] = tables[n]
	}
	t, err := table.Concat(stage, parts...)
	if err != nil {
		return stageResult{}, err
	}

	s, err := o.registry.Get(stage)
	if err != nil {
		return stageResult{}, err
	}
	report := schema.Check(t, s)
	observability.SetSpanAttribute(ctx, "cemint.valid", report.OK)
	if len(report.Extra) > 0 {
		log.Warn("columns not declared in schema", logger.Fields("columns", report.Extra))
	}
	if !report.OK {
		if o.cfg.Strict {
			return stageResult{}, apperrors.ValidationFailed(stage, report.Message)
		}
		log.Warn("validation failed, continuing", logger.Fields("message", report.Message))
	}

	var (
		out    *table.Table
		scaler *transform.Scaler
	)
	switch o.cfg.Mode {
	case ModeFull:
		cfg := o.cfg.Transform
		cfg.Method = method
		out, scaler, err = transform.Pipeline(t, cfg)
	default:
		out, scaler, err = transform.Preprocess(t, o.cfg.TimestampColumn, method)
	}
	if err != nil {
		log.Error("stage transform failed", logger.ErrorFields("transform", err))
		return stageResult{}, err
	}
	return stageResult{stage: stage, table: out, scaler: scaler, report: report}, nil
}
