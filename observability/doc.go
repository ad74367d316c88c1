// Package observability wires OpenTelemetry tracing and metrics for cemint.
//
// InitTracer and InitMeter install OTLP/HTTP exporters as the global
// providers. Until they run, spans are non-recording and instruments are
// no-ops, so instrumented code never checks whether telemetry is enabled.
//
// # Configuration
//
//	observability:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  insecure: true
//	  sample_rate: 0.25
//	  metric_interval: 15s
//
// # Usage
//
//	ctx, op := observability.StartOperation(ctx, observability.OpStage, stage)
//	out, err := transform(ctx, in)
//	op.SetRows(out.Len())
//	op.End(ctx, err)
package observability
