// Package artifact persists processed stage tables with their statistics
// summary and fitted scaler.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/observability"
	"github.com/cemint/cemint-insights/stats"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/transform"
)

// Format is a table serialization.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// DefaultFormats writes both serializations.
var DefaultFormats = []Format{FormatCSV, FormatParquet}

// ParseFormats resolves format names. An empty list yields DefaultFormats.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return DefaultFormats, nil
	}
	out := make([]Format, 0, len(names))
	for _, n := range names {
		switch Format(n) {
		case FormatCSV, FormatParquet:
			out = append(out, Format(n))
		default:
			return nil, apperrors.UnsupportedMethod("format", n, []string{string(FormatCSV), string(FormatParquet)})
		}
	}
	return out, nil
}

// ProcessedPath returns <dir>/<stage>_processed.<ext>.
func ProcessedPath(dir, stage string, f Format) string {
	return storage.Join(dir, fmt.Sprintf("%s_processed.%s", stage, f))
}

// StatsPath returns <dir>/<stage>_stats.json.
func StatsPath(dir, stage string) string {
	return storage.Join(dir, stage+"_stats.json")
}

// ScalerPath returns <dir>/<stage>_scaler.json.
func ScalerPath(dir, stage string) string {
	return storage.Join(dir, stage+"_scaler.json")
}

// Writer writes stage artifacts through a storage backend.
type Writer struct {
	store   storage.Storage
	formats []Format
	log     *logger.Logger
}

// NewWriter creates a Writer. A nil formats list writes DefaultFormats.
func NewWriter(store storage.Storage, formats []Format, log *logger.Logger) *Writer {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Writer{store: store, formats: formats, log: log.WithComponent("artifact")}
}

// WriteStage writes the processed table in every configured format, the
// describe() summary and, when non-nil, the scaler. It returns the paths
// written.
func (w *Writer) WriteStage(ctx context.Context, dir, stage string, t *table.Table, scaler *transform.Scaler) (written []string, err error) {
	ctx, op := observability.StartOperation(ctx, observability.OpArtifact, stage)
	defer func() {
		observability.SetSpanAttribute(ctx, "cemint.files", len(written))
		op.End(ctx, err)
	}()
	op.SetRows(t.Len())

	put := func(p string, encode func(*bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := encode(&buf); err != nil {
			return apperrors.Internal(err).WithDetail(logger.FieldPath, p)
		}
		if err := w.store.Upload(ctx, p, &buf); err != nil {
			return apperrors.StorageError("write", p, err)
		}
		written = append(written, p)
		w.log.Debug("artifact written", logger.Fields(logger.FieldStage, stage, logger.FieldPath, p))
		return nil
	}

	for _, f := range w.formats {
		var err error
		switch f {
		case FormatCSV:
			err = put(ProcessedPath(dir, stage, f), func(b *bytes.Buffer) error { return table.WriteCSV(b, t) })
		case FormatParquet:
			err = put(ProcessedPath(dir, stage, f), func(b *bytes.Buffer) error { return WriteParquet(b, t) })
		}
		if err != nil {
			return written, err
		}
	}

	putJSON := func(p string, v any) error {
		if err := storage.WriteJSON(ctx, w.store, p, v); err != nil {
			return apperrors.StorageError("write", p, err)
		}
		written = append(written, p)
		return nil
	}
	if err := putJSON(StatsPath(dir, stage), stats.Describe(t)); err != nil {
		return written, err
	}
	if scaler != nil {
		if err := putJSON(ScalerPath(dir, stage), scaler); err != nil {
			return written, err
		}
	}

	w.log.Info("stage artifacts saved", logger.Fields(logger.FieldStage, stage, logger.FieldPath, dir, "files", len(written)))
	return written, nil
}

// ReadParquet loads a processed Parquet artifact.
func ReadParquet(ctx context.Context, store storage.Storage, p string) (*table.Table, error) {
	data, err := storage.ReadFile(ctx, store, p)
	if err != nil {
		return nil, apperrors.StorageError("read", p, err)
	}
	return DecodeParquet(ctx, stageOf(p), data)
}

// ReadCSV loads a processed CSV artifact.
func ReadCSV(ctx context.Context, store storage.Storage, p string) (*table.Table, error) {
	rc, err := store.Download(ctx, p)
	if err != nil {
		return nil, apperrors.StorageError("read", p, err)
	}
	defer rc.Close()
	return table.ReadCSV(stageOf(p), rc)
}

// ReadScaler loads a persisted scaler.
func ReadScaler(ctx context.Context, store storage.Storage, p string) (*transform.Scaler, error) {
	var s transform.Scaler
	if err := readJSON(ctx, store, p, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadStats loads a persisted statistics summary.
func ReadStats(ctx context.Context, store storage.Storage, p string) (stats.Summary, error) {
	var s stats.Summary
	if err := readJSON(ctx, store, p, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func readJSON(ctx context.Context, store storage.Storage, p string, v any) error {
	data, err := storage.ReadFile(ctx, store, p)
	if err != nil {
		return apperrors.StorageError("read", p, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.InvalidFormat("artifact", fmt.Sprintf("%s: %v", p, err)).WithCause(err)
	}
	return nil
}

func stageOf(p string) string {
	name := storage.Base(p)
	for _, suffix := range []string{"_processed.csv", "_processed.parquet"} {
		if stage, ok := strings.CutSuffix(name, suffix); ok {
			return stage
		}
	}
	return name
}
