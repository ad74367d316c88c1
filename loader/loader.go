// Package loader reads plant CSV exports laid out as
// <base>/<run id>/<stage>/*.csv into tables.
package loader

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/table"
)

// RunIDLayout formats run directory names. It is zero padded so that
// lexicographic order is chronological order.
const RunIDLayout = "2006-01-02_15-04-05"

// StagePrefix marks stage subdirectories and flat stage files inside a run.
const StagePrefix = "stage"

// DefaultSuffix marks the default scenario export of a flat stage file:
// stage1_raw_materials_default.csv holds stage stage1_raw_materials.
const DefaultSuffix = "_default"

// Schemas reports which stages have a registered schema.
// *schema.Registry satisfies it.
type Schemas interface {
	Has(stage string) bool
}

// NewRunID returns the run directory name for t.
func NewRunID(t time.Time) string {
	return t.Format(RunIDLayout)
}

// Run is one timestamped batch of stage tables.
type Run struct {
	ID  string
	Dir string
	// Stages maps stage name to its tables keyed by file base name.
	Stages map[string]map[string]*table.Table
}

// StageNames returns the loaded stage names, sorted.
func (r *Run) StageNames() []string {
	names := make([]string, 0, len(r.Stages))
	for n := range r.Stages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Loader reads tables through a storage backend.
type Loader struct {
	store   storage.Storage
	schemas Schemas
	log     *logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithSchemas makes LoadStageFiles skip files whose stage has no schema.
func WithSchemas(s Schemas) Option {
	return func(l *Loader) { l.schemas = s }
}

// New creates a Loader.
func New(store storage.Storage, log *logger.Logger, opts ...Option) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	l := &Loader{store: store, log: log.WithComponent("loader")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadCSV reads one CSV object. A table without a timestamp column or
// without rows is returned with a warning.
func (l *Loader) LoadCSV(ctx context.Context, p string) (*table.Table, error) {
	rc, err := l.store.Download(ctx, p)
	if err != nil {
		return nil, apperrors.StorageError("read", p, err)
	}
	defer rc.Close()

	t, err := table.ReadCSV(baseName(p), rc)
	if err != nil {
		return nil, err
	}

	fields := logger.Fields(logger.FieldPath, p, logger.FieldRows, t.Len(), "columns", t.Width())
	switch {
	case t.Len() == 0:
		l.log.Warn("loaded table is empty", fields)
	case !t.Has("timestamp"):
		l.log.Warn("timestamp column missing", fields)
	default:
		l.log.Debug("loaded csv", fields)
	}
	return t, nil
}

// LoadStage reads every CSV file directly inside stageDir, keyed by base name.
func (l *Loader) LoadStage(ctx context.Context, stageDir string) (map[string]*table.Table, error) {
	return l.loadMatching(ctx, stageDir, ".csv")
}

func (l *Loader) loadMatching(ctx context.Context, dir, suffix string) (map[string]*table.Table, error) {
	listing, err := storage.ListDir(ctx, l.store, dir)
	if err != nil {
		return nil, apperrors.StorageError("list", dir, err)
	}

	tables := make(map[string]*table.Table)
	for _, f := range listing.Files {
		if !strings.HasSuffix(f.Path, suffix) {
			continue
		}
		t, err := l.LoadCSV(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		tables[t.Name] = t
	}
	if len(tables) == 0 {
		return nil, apperrors.NoFilesFound(dir)
	}
	return tables, nil
}

// LatestRunDir returns the lexicographically last run directory in baseDir.
func (l *Loader) LatestRunDir(ctx context.Context, baseDir string) (string, error) {
	listing, err := storage.ListDir(ctx, l.store, baseDir)
	if err != nil {
		return "", apperrors.StorageError("list", baseDir, err)
	}
	if len(listing.Dirs) == 0 {
		return "", apperrors.NoFilesFound(baseDir)
	}
	return listing.Dirs[len(listing.Dirs)-1], nil
}

// LoadLatestRun loads the most recent run under baseDir.
func (l *Loader) LoadLatestRun(ctx context.Context, baseDir string) (*Run, error) {
	dir, err := l.LatestRunDir(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	return l.LoadRun(ctx, dir)
}

// LoadRun loads every stage directory of runDir. A run without stage
// directories is loaded with LoadStageFiles.
func (l *Loader) LoadRun(ctx context.Context, runDir string) (*Run, error) {
	listing, err := storage.ListDir(ctx, l.store, runDir)
	if err != nil {
		return nil, apperrors.StorageError("list", runDir, err)
	}

	stageDirs := filterStageDirs(listing.Dirs)
	if len(stageDirs) == 0 {
		l.log.Warn("no stage directories, loading stage files directly",
			logger.Fields(logger.FieldRunID, storage.Base(runDir), logger.FieldPath, runDir))
		return l.stageFiles(ctx, runDir, listing)
	}

	run := &Run{ID: storage.Base(runDir), Dir: runDir, Stages: make(map[string]map[string]*table.Table)}
	log := l.log.WithFields(logger.Fields(logger.FieldRunID, run.ID))

	for _, dir := range stageDirs {
		stage := storage.Base(dir)
		tables, err := l.LoadStage(ctx, dir)
		if err != nil {
			return nil, err
		}
		run.Stages[stage] = tables
		log.Info("stage loaded", logger.Fields(logger.FieldStage, stage, "tables", len(tables)))
	}
	return run, nil
}

// LoadStageFiles loads the flat stage*.csv files directly inside runDir. The
// stage name is the file base name up to any "_default" suffix. Files whose
// stage has no schema are skipped with a warning when the Loader has schemas.
func (l *Loader) LoadStageFiles(ctx context.Context, runDir string) (*Run, error) {
	listing, err := storage.ListDir(ctx, l.store, runDir)
	if err != nil {
		return nil, apperrors.StorageError("list", runDir, err)
	}
	return l.stageFiles(ctx, runDir, listing)
}

func (l *Loader) stageFiles(ctx context.Context, runDir string, listing storage.Listing) (*Run, error) {
	run := &Run{ID: storage.Base(runDir), Dir: runDir, Stages: make(map[string]map[string]*table.Table)}
	log := l.log.WithFields(logger.Fields(logger.FieldRunID, run.ID))

	found := 0
	for _, f := range listing.Files {
		name := baseName(f.Path)
		if !strings.HasPrefix(name, StagePrefix) || !strings.HasSuffix(f.Path, ".csv") {
			continue
		}
		found++
		stage := StageName(name)
		if l.schemas != nil && !l.schemas.Has(stage) {
			log.Warn("no schema for stage file, skipping", logger.Fields(logger.FieldStage, stage, logger.FieldPath, f.Path))
			continue
		}
		t, err := l.LoadCSV(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		if run.Stages[stage] == nil {
			run.Stages[stage] = make(map[string]*table.Table)
		}
		run.Stages[stage][t.Name] = t
	}
	if found == 0 {
		return nil, apperrors.NoFilesFound(runDir)
	}
	if len(run.Stages) == 0 {
		return nil, apperrors.NoFilesFound(runDir).WithDetail("reason", "no stage file has a schema")
	}
	return run, nil
}

// StageName maps a flat stage file base name to its stage.
func StageName(base string) string {
	stage, _, _ := strings.Cut(base, DefaultSuffix)
	return stage
}

// LoadScenario loads only the <name>_<scenario>.csv files of each stage in
// the latest run. Stages without such files are skipped.
func (l *Loader) LoadScenario(ctx context.Context, baseDir, scenario string) (*Run, error) {
	dir, err := l.LatestRunDir(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	listing, err := storage.ListDir(ctx, l.store, dir)
	if err != nil {
		return nil, apperrors.StorageError("list", dir, err)
	}

	run := &Run{ID: storage.Base(dir), Dir: dir, Stages: make(map[string]map[string]*table.Table)}
	for _, stageDir := range filterStageDirs(listing.Dirs) {
		tables, err := l.loadMatching(ctx, stageDir, "_"+scenario+".csv")
		if apperrors.HasCode(err, apperrors.ErrCodeNoFilesFound) {
			l.log.Warn("no scenario files, skipping stage",
				logger.Fields(logger.FieldPath, stageDir, "scenario", scenario))
			continue
		}
		if err != nil {
			return nil, err
		}
		run.Stages[storage.Base(stageDir)] = tables
	}
	return run, nil
}

func filterStageDirs(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if strings.HasPrefix(storage.Base(d), StagePrefix) {
			out = append(out, d)
		}
	}
	return out
}

func baseName(p string) string {
	name := storage.Base(p)
	return strings.TrimSuffix(name, path.Ext(name))
}
