package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/storage/local"
	"github.com/cemint/cemint-insights/table"
)

const rawMaterialsSchema = `{
  "fields": [
    {"name": "timestamp", "type": "datetime"},
    {"name": "limestone_tph", "type": "float"},
    {"name": "silo_level_pct", "type": "number"}
  ]
}`

const rawMaterialsColumns = `{
  "columns": [
    {"name": "timestamp", "type": "timestamp"},
    {"name": "limestone_tph", "type": "float"},
    {"name": "silo_level_pct", "type": "double"}
  ]
}`

func TestParseFormsAgree(t *testing.T) {
	fields, err := Parse("stage1_raw_materials", []byte(rawMaterialsSchema))
	require.NoError(t, err)
	columns, err := Parse("stage1_raw_materials", []byte(rawMaterialsColumns))
	require.NoError(t, err)
	assert.Equal(t, fields, columns)
	assert.Equal(t, []string{"timestamp", "limestone_tph", "silo_level_pct"}, fields.Names())
	assert.Equal(t, table.Timestamp, fields.Fields[0].Type)
}

func TestParseBareColumnNames(t *testing.T) {
	s, err := Parse("stage5", []byte(`{"columns": ["timestamp", "bags"]}`))
	require.NoError(t, err)
	assert.Equal(t, []Field{{Name: "timestamp", Type: table.String}, {Name: "bags", Type: table.String}}, s.Fields)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"not json":     `{`,
		"no fields":    `{}`,
		"unknown type": `{"fields":[{"name":"a","type":"decimal"}]}`,
		"duplicate":    `{"fields":[{"name":"a"},{"name":"a"}]}`,
		"nameless":     `{"fields":[{"type":"float"}]}`,
		"bad column":   `{"columns":[42]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("s", []byte(doc))
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidFormat), "got %v", err)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	ctx := context.Background()
	store, err := local.NewStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Upload(ctx, "schema/stage1_raw_materials_schema.json", strings.NewReader(rawMaterialsSchema)))
	require.NoError(t, store.Upload(ctx, "schema/stage3_clinker_schema.json", strings.NewReader(`{"columns":["timestamp","kiln_temp_c"]}`)))
	require.NoError(t, store.Upload(ctx, "schema/README.md", strings.NewReader("ignored")))
	require.NoError(t, store.Upload(ctx, "schema/old/stage9_schema.json", strings.NewReader(rawMaterialsSchema)))

	reg, err := LoadRegistry(ctx, store, "schema", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"stage1_raw_materials", "stage3_clinker"}, reg.Stages())

	s, err := reg.Get("stage3_clinker")
	require.NoError(t, err)
	assert.Equal(t, "stage3_clinker", s.Stage)
	assert.Equal(t, []string{"timestamp", "kiln_temp_c"}, s.Names())

	_, err = reg.Get("stage9")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSchemaNotFound))
}

func TestLoadRegistryBadDocument(t *testing.T) {
	ctx := context.Background()
	store, err := local.NewStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Upload(ctx, "s/broken_schema.json", strings.NewReader(`{"fields": [`)))

	_, err = LoadRegistry(ctx, store, "s", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidFormat))
}

func TestValidate(t *testing.T) {
	s := NewRegistry(&Schema{Stage: "stage1", Fields: []Field{
		{Name: "timestamp", Type: table.Timestamp},
		{Name: "a", Type: table.Float},
		{Name: "b", Type: table.Float},
	}})
	stage1, err := s.Get("stage1")
	require.NoError(t, err)

	stamps := table.NewStringColumn("timestamp", []string{"2025-09-17 23:10:01", "2025-09-17 23:11:01"})

	tests := []struct {
		name    string
		tbl     *table.Table
		ok      bool
		message string
	}{
		{
			name:    "missing one column",
			tbl:     table.MustFromColumns("t", stamps, table.NewFloatColumn("a", []float64{1, 2})),
			message: "Missing columns: {'b'}",
		},
		{
			name:    "missing columns sorted",
			tbl:     table.MustFromColumns("t", stamps),
			message: "Missing columns: {'a', 'b'}",
		},
		{
			name: "empty column",
			tbl: table.MustFromColumns("t", stamps,
				table.NewFloatColumn("a", []float64{1, 2}),
				table.NewColumn("b", table.Float, []any{nil, nil}),
			),
			message: "Empty columns: ['b']",
		},
		{
			name: "bad timestamp",
			tbl: table.MustFromColumns("t",
				table.NewStringColumn("timestamp", []string{"2025-09-17 23:10:01", "soon"}),
				table.NewFloatColumn("a", []float64{1, 2}),
				table.NewFloatColumn("b", []float64{1, 2}),
			),
			message: "Timestamp parse error",
		},
		{
			name: "epoch nanoseconds",
			tbl: table.MustFromColumns("t",
				table.NewIntColumn("timestamp", []int64{1758150601000000000, 1758150661000000000}),
				table.NewFloatColumn("a", []float64{1, 2}),
				table.NewFloatColumn("b", []float64{1, 2}),
			),
			ok:      true,
			message: "OK",
		},
		{
			name: "ok with extra column",
			tbl: table.MustFromColumns("t", stamps,
				table.NewFloatColumn("a", []float64{1, 2}),
				table.NewFloatColumn("b", []float64{1, 2}),
				table.NewStringColumn("shift", []string{"A", "B"}),
			),
			ok:      true,
			message: "OK",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := Validate(tt.tbl, stage1)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestCheckReportsExtraColumns(t *testing.T) {
	s := &Schema{Stage: "s", Fields: []Field{{Name: "a", Type: table.Float}}}
	tbl := table.MustFromColumns("t",
		table.NewFloatColumn("a", []float64{1}),
		table.NewFloatColumn("z", []float64{2}),
	)
	r := Check(tbl, s)
	assert.True(t, r.OK)
	assert.Equal(t, []string{"z"}, r.Extra)
	assert.Empty(t, r.Missing)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'kiln'", quote("kiln"))
	assert.Equal(t, `"operator's"`, quote("operator's"))
}
