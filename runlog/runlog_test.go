package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemint/cemint-insights/component"
	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/etl"
	"github.com/cemint/cemint-insights/schema"
	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/transform"
)

var t0 = time.Date(2025, 9, 17, 23, 10, 1, 0, time.UTC)

func openTest(t *testing.T, retention int) *Store {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "history.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, retention)
}

func succeeded(id string, started time.Time) etl.Outcome {
	mill := table.MustFromColumns("stage4_cement_grinding",
		table.NewFloatColumn("mill_power_kwh", []float64{100, 200}),
		table.NewFloatColumn("throughput_tph", []float64{50, 50}),
	)
	feed := table.MustFromColumns("stage1_raw_materials",
		table.NewFloatColumn("limestone_tph", []float64{120, 140, 160}),
	)
	return etl.Outcome{
		RunID:    id,
		InputDir: "raw/" + id,
		Method:   transform.Standard,
		Started:  started,
		Finished: started.Add(1500 * time.Millisecond),
		Result: &etl.RunResult{
			RunID:     id,
			OutputDir: "processed/" + id,
			Tables:    map[string]*table.Table{"stage4_cement_grinding": mill, "stage1_raw_materials": feed},
			Validation: map[string]schema.Report{
				"stage1_raw_materials":   {OK: false, Message: "Missing columns: {'clay_tph'}"},
				"stage4_cement_grinding": {OK: true, Message: "Validation passed"},
			},
			Artifacts: []string{"a", "b", "c"},
		},
	}
}

func TestFromOutcome(t *testing.T) {
	r := FromOutcome(succeeded("2025-09-17_23-10-01", t0))
	assert.Equal(t, StatusSucceeded, r.Status)
	assert.Equal(t, "standard", r.Method)
	assert.Equal(t, 5, r.Rows)
	assert.Equal(t, 3, r.Artifacts)
	assert.Equal(t, int64(1500), r.DurationMS)
	require.Len(t, r.Stages, 2)
	assert.Equal(t, "stage1_raw_materials", r.Stages[0].Name, "stages are sorted")
	assert.False(t, r.Stages[0].Valid)
	assert.Equal(t, 2, r.Stages[1].Columns)

	failed := FromOutcome(etl.Outcome{RunID: "x", Started: t0, Finished: t0, Err: errors.New("boom")})
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.Empty(t, failed.Stages)
}

func TestStoreRecordAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, 0)

	require.NoError(t, s.Record(ctx, succeeded("2025-09-17_23-10-01", t0)))
	got, err := s.Get(ctx, "2025-09-17_23-10-01")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, "processed/2025-09-17_23-10-01", got.OutputDir)
	assert.True(t, got.StartedAt.Equal(t0))
	require.Len(t, got.Stages, 2)
	assert.Equal(t, Stage{RunID: got.ID, Name: "stage4_cement_grinding", Rows: 2, Columns: 2, Valid: true, Message: "Validation passed"}, got.Stages[1])

	// Re-running the same directory replaces the record.
	rerun := etl.Outcome{RunID: "2025-09-17_23-10-01", InputDir: "raw/x", Started: t0.Add(time.Hour), Finished: t0.Add(time.Hour), Err: errors.New("disk full")}
	require.NoError(t, s.Record(ctx, rerun))
	got, err = s.Get(ctx, "2025-09-17_23-10-01")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "disk full", got.Error)
	assert.Empty(t, got.Stages)

	_, err = s.Get(ctx, "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	err = s.Save(ctx, &Run{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, 0)

	require.NoError(t, s.Record(ctx, succeeded("r1", t0)))
	require.NoError(t, s.Record(ctx, etl.Outcome{RunID: "r2", Started: t0.Add(time.Hour), Finished: t0.Add(time.Hour), Err: errors.New("x")}))
	stress := succeeded("r3_stress", t0.Add(2*time.Hour))
	stress.Scenario = "stress"
	require.NoError(t, s.Record(ctx, stress))

	runs, err := s.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"r3_stress", "r2", "r1"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Empty(t, runs[0].Stages, "list does not load stages")

	runs, err = s.List(ctx, Query{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r2", runs[0].ID)

	runs, err = s.List(ctx, Query{Scenario: "stress"})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	runs, err = s.List(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r3_stress", runs[0].ID)

	_, err = s.List(ctx, Query{Status: "pending"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestStoreRetention(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, 2)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.Record(ctx, succeeded(id, t0.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)

	_, err = s.Get(ctx, "r1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	var orphans int64
	require.NoError(t, s.db.WithContext(ctx).Model(&Stage{}).Where("run_id = ?", "r1").Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestOpenIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")
	for range 2 {
		db, err := Open(context.Background(), Config{DSN: dsn}, nil)
		require.NoError(t, err)
		require.NoError(t, db.Close())
		require.NoError(t, db.Close())
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultDSN, cfg.DSN)
	assert.Equal(t, 1, cfg.MaxOpenConns)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.Validate(), "disabled config is not checked")

	cfg.Enabled = true
	cfg.LogLevel = "trace"
	assert.Error(t, cfg.Validate())
}

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewComponent(Config{Enabled: true, DSN: filepath.Join(t.TempDir(), "history.db"), Retention: 10}, nil)
	assert.Nil(t, c.Store())
	assert.Equal(t, component.StatusUnhealthy, c.Health(ctx).Status)

	require.NoError(t, c.Start(ctx))
	require.NotNil(t, c.Store())
	assert.Equal(t, component.StatusHealthy, c.Health(ctx).Status)
	assert.Equal(t, "dsn="+c.cfg.DSN+" retention=10", c.Describe().Details)

	require.NoError(t, c.Stop(ctx))
	assert.Nil(t, c.Store())
	require.NoError(t, c.Stop(ctx))
}
