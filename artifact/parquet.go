package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/table"
)

var timestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// ArrowSchema maps table column kinds to nullable Arrow fields.
func ArrowSchema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, t.Width())
	for _, c := range t.Columns() {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.Int:
		return arrow.PrimitiveTypes.Int64
	case table.Float:
		return arrow.PrimitiveTypes.Float64
	case table.Bool:
		return arrow.FixedWidthTypes.Boolean
	case table.Timestamp:
		return timestampType
	}
	return arrow.BinaryTypes.String
}

// Record converts t to a single Arrow record. The caller releases it.
func Record(t *table.Table, mem memory.Allocator) arrow.Record {
	schema := ArrowSchema(t)
	cols := make([]arrow.Array, t.Width())
	for i, c := range t.Columns() {
		cols[i] = buildArray(c, mem)
	}
	rec := array.NewRecord(schema, cols, int64(t.Len()))
	for _, a := range cols {
		a.Release()
	}
	return rec
}

func buildArray(c *table.Column, mem memory.Allocator) arrow.Array {
	switch c.Kind {
	case table.Int:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for i, v := range c.Values {
			if x, ok := v.(int64); ok && !c.IsNull(i) {
				b.Append(x)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case table.Float:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i := range c.Values {
			if x, ok := c.Float(i); ok {
				b.Append(x)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case table.Bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if x, ok := v.(bool); ok {
				b.Append(x)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case table.Timestamp:
		b := array.NewTimestampBuilder(mem, timestampType)
		defer b.Release()
		for _, v := range c.Values {
			if ts, ok := table.AsTimestamp(v); ok {
				b.Append(arrow.Timestamp(ts.UnixMicro()))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	}
	b := array.NewStringBuilder(mem)
	defer b.Release()
	for _, v := range c.Values {
		if v == nil {
			b.AppendNull()
		} else {
			b.Append(table.FormatValue(v))
		}
	}
	return b.NewArray()
}

// WriteParquet encodes t as a Parquet file with the Arrow schema embedded.
func WriteParquet(w io.Writer, t *table.Table) error {
	mem := memory.DefaultAllocator
	rec := Record(t, mem)
	defer rec.Release()

	fw, err := pqarrow.NewFileWriter(rec.Schema(), w,
		parquet.NewWriterProperties(parquet.WithAllocator(mem)),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close() //nolint:errcheck
		return fmt.Errorf("parquet write: %w", err)
	}
	return fw.Close()
}

// DecodeParquet reads a Parquet document back into a table named name.
func DecodeParquet(ctx context.Context, name string, data []byte) (*table.Table, error) {
	mem := memory.DefaultAllocator
	at, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem),
		pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, apperrors.InvalidFormat("parquet", err.Error()).WithCause(err)
	}
	defer at.Release()

	out := table.New(name)
	for i := 0; i < int(at.NumCols()); i++ {
		col := at.Column(i)
		c, err := columnFromChunks(col.Name(), col.DataType(), col.Data().Chunks())
		if err != nil {
			return nil, err
		}
		if err := out.SetColumn(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func columnFromChunks(name string, dt arrow.DataType, chunks []arrow.Array) (*table.Column, error) {
	kind, ok := kindOf(dt)
	if !ok {
		return nil, apperrors.InvalidFormat("parquet", fmt.Sprintf("column %s has unsupported type %s", name, dt))
	}
	values := []any{}
	for _, chunk := range chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				values = append(values, nil)
				continue
			}
			switch a := chunk.(type) {
			case *array.Int64:
				values = append(values, a.Value(i))
			case *array.Float64:
				values = append(values, a.Value(i))
			case *array.Boolean:
				values = append(values, a.Value(i))
			case *array.String:
				values = append(values, a.Value(i))
			case *array.Timestamp:
				unit := a.DataType().(*arrow.TimestampType).Unit
				values = append(values, a.Value(i).ToTime(unit))
			}
		}
	}
	return table.NewColumn(name, kind, values), nil
}

func kindOf(dt arrow.DataType) (table.Kind, bool) {
	switch dt.ID() {
	case arrow.INT64:
		return table.Int, true
	case arrow.FLOAT64:
		return table.Float, true
	case arrow.BOOL:
		return table.Bool, true
	case arrow.TIMESTAMP:
		return table.Timestamp, true
	case arrow.STRING:
		return table.String, true
	}
	return table.String, false
}
