// Package warehouse streams processed stage tables into BigQuery.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/pipeline"
	"github.com/cemint/cemint-insights/table"
)

// Sink receives processed tables.
type Sink interface {
	Write(ctx context.Context, name string, t *table.Table) error
}

// BigQuerySink writes tables into one BigQuery dataset.
type BigQuerySink struct {
	client    *bigquery.Client
	dataset   string
	batchSize int
	log       *logger.Logger
}

// NewBigQuerySink connects to BigQuery with the configured credentials.
func NewBigQuerySink(ctx context.Context, cfg Config, log *logger.Logger) (*BigQuerySink, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, apperrors.ExternalServiceError("bigquery", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &BigQuerySink{
		client:    client,
		dataset:   cfg.Dataset,
		batchSize: cfg.BatchSize,
		log:       log.WithComponent("warehouse"),
	}, nil
}

// Close releases the client.
func (s *BigQuerySink) Close() error {
	return s.client.Close()
}

// Write creates the destination table when absent and streams every row.
func (s *BigQuerySink) Write(ctx context.Context, name string, t *table.Table) error {
	schema := Schema(t)
	if err := s.EnsureTable(ctx, name, schema); err != nil {
		return err
	}

	inserter := s.client.Dataset(s.dataset).Table(name).Inserter()
	batches := pipeline.Batch(pipeline.FromSlice(Rows(t, schema)), s.batchSize)
	err := pipeline.ForEach(ctx, batches, func(ctx context.Context, rows []*bigquery.ValuesSaver) error {
		return inserter.Put(ctx, rows)
	})
	if err != nil {
		return apperrors.ExternalServiceError("bigquery", err).WithDetail(logger.FieldTable, name)
	}

	s.log.Info("table streamed", logger.Fields(logger.FieldTable, s.dataset+"."+name, logger.FieldRows, t.Len()))
	return nil
}

// EnsureTable creates the named table with schema unless it already exists.
func (s *BigQuerySink) EnsureTable(ctx context.Context, name string, schema bigquery.Schema) error {
	ref := s.client.Dataset(s.dataset).Table(name)
	_, err := ref.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return apperrors.ExternalServiceError("bigquery", err).WithDetail(logger.FieldTable, name)
	}
	if err := ref.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return apperrors.ExternalServiceError("bigquery", err).WithDetail(logger.FieldTable, name)
	}
	s.log.Info("table created", logger.Fields(logger.FieldTable, s.dataset+"."+name))
	return nil
}

// Schema maps column kinds to nullable BigQuery fields.
func Schema(t *table.Table) bigquery.Schema {
	schema := make(bigquery.Schema, 0, t.Width())
	for _, c := range t.Columns() {
		schema = append(schema, &bigquery.FieldSchema{Name: c.Name, Type: fieldType(c.Kind)})
	}
	return schema
}

func fieldType(k table.Kind) bigquery.FieldType {
	switch k {
	case table.Int:
		return bigquery.IntegerFieldType
	case table.Float:
		return bigquery.FloatFieldType
	case table.Bool:
		return bigquery.BooleanFieldType
	case table.Timestamp:
		return bigquery.TimestampFieldType
	}
	return bigquery.StringFieldType
}

// Rows converts t to insert rows in schema order. Nulls and non-finite floats
// become nil.
func Rows(t *table.Table, schema bigquery.Schema) []*bigquery.ValuesSaver {
	rows := make([]*bigquery.ValuesSaver, t.Len())
	for i := range rows {
		values := make([]bigquery.Value, len(schema))
		for j, f := range schema {
			c, _ := t.Column(f.Name)
			values[j] = value(c.Values[i], f.Type)
		}
		rows[i] = &bigquery.ValuesSaver{Schema: schema, InsertID: bigquery.NoDedupeID, Row: values}
	}
	return rows
}

func value(v any, ft bigquery.FieldType) bigquery.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case string:
		if ft == bigquery.TimestampFieldType {
			if ts, ok := table.ParseTimestamp(x); ok {
				return ts
			}
			return nil
		}
		return x
	case time.Time:
		return x
	}
	if ft == bigquery.StringFieldType {
		return fmt.Sprint(v)
	}
	return v
}

var _ Sink = (*BigQuerySink)(nil)
