package warehouse

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemint/cemint-insights/table"
)

func TestSchemaFromKinds(t *testing.T) {
	tbl := table.MustFromColumns("stage1_processed",
		table.NewTimestampColumn("timestamp", []time.Time{time.Unix(0, 0).UTC()}),
		table.NewFloatColumn("mill_power_kwh", []float64{0.5}),
		table.NewIntColumn("hour", []int64{3}),
		table.NewBoolColumn("is_anomaly", []bool{true}),
		table.NewStringColumn("operator", []string{"ann"}),
	)

	schema := Schema(tbl)
	require.Len(t, schema, 5)
	want := []bigquery.FieldType{
		bigquery.TimestampFieldType,
		bigquery.FloatFieldType,
		bigquery.IntegerFieldType,
		bigquery.BooleanFieldType,
		bigquery.StringFieldType,
	}
	for i, f := range schema {
		assert.Equal(t, want[i], f.Type, f.Name)
		assert.False(t, f.Required, f.Name)
	}
}

func TestRowsNullHandling(t *testing.T) {
	ts := time.Date(2025, 9, 17, 23, 10, 1, 0, time.UTC)
	tbl := table.MustFromColumns("t",
		table.NewColumn("timestamp", table.Timestamp, []any{ts, nil}),
		table.NewColumn("x", table.Float, []any{math.Inf(1), 1.5}),
		table.NewColumn("n", table.Int, []any{nil, int64(2)}),
	)
	schema := Schema(tbl)
	rows := Rows(tbl, schema)
	require.Len(t, rows, 2)

	assert.Equal(t, []bigquery.Value{ts, nil, nil}, rows[0].Row)
	assert.Equal(t, []bigquery.Value{nil, 1.5, int64(2)}, rows[1].Row)
	assert.Equal(t, bigquery.NoDedupeID, rows[0].InsertID)
}

func TestValueParsesTimestampStrings(t *testing.T) {
	got := value("2025-09-17 23:10:01", bigquery.TimestampFieldType)
	assert.Equal(t, time.Date(2025, 9, 17, 23, 10, 1, 0, time.UTC), got)
	assert.Nil(t, value("later", bigquery.TimestampFieldType))
	assert.Equal(t, "true", value(true, bigquery.StringFieldType))
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	assert.NoError(t, cfg.Validate(), "disabled sink needs no settings")

	cfg.Enabled = true
	assert.Error(t, cfg.Validate())
	cfg.ProjectID, cfg.Dataset = "plant", "processed"
	assert.NoError(t, cfg.Validate())

	cfg.ApplyDefaults()
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
}
