package alert

import (
	"context"
	"errors"
	"time"

	"github.com/cemint/cemint-insights/table"
	"github.com/cemint/cemint-insights/warehouse"
)

// DefaultTable is the warehouse table alerts are archived to.
const DefaultTable = "Power_Eff_Degradation_Triggers"

// SinkPublisher archives each alert as one row of a warehouse table.
type SinkPublisher struct {
	sink  warehouse.Sink
	table string
}

// NewSinkPublisher archives into tableName, or DefaultTable when empty.
func NewSinkPublisher(sink warehouse.Sink, tableName string) *SinkPublisher {
	if tableName == "" {
		tableName = DefaultTable
	}
	return &SinkPublisher{sink: sink, table: tableName}
}

// Publish writes a as a single row.
func (p *SinkPublisher) Publish(ctx context.Context, a Alert) error {
	return p.sink.Write(ctx, p.table, Row(a))
}

// Row renders a as a one-row table with the payload's JSON field names. A
// parseable timestamp is stored as a timestamp column.
func Row(a Alert) *table.Table {
	ts := table.NewStringColumn("timestamp", []string{a.Timestamp})
	if parsed, ok := table.ParseTimestamp(a.Timestamp); ok {
		ts = table.NewTimestampColumn("timestamp", []time.Time{parsed})
	}
	return table.MustFromColumns("alert",
		table.NewStringColumn("id", []string{a.ID}),
		ts,
		table.NewStringColumn("model_id", []string{a.ModelID}),
		table.NewStringColumn("alert_type", []string{a.AlertType}),
		table.NewStringColumn("message", []string{a.Message}),
		table.NewStringColumn("suggestion", []string{a.Suggestion}),
	)
}

// Fanout delivers every alert to each of its publishers.
type Fanout []Publisher

// NewFanout drops nil publishers. It returns nil when none remain and the
// publisher itself when only one does.
func NewFanout(pubs ...Publisher) Publisher {
	var out Fanout
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Publish tries every publisher and joins their errors.
func (f Fanout) Publish(ctx context.Context, a Alert) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
