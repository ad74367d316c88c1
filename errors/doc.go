// Package errors provides the structured error type shared by the pipeline,
// the model registry and the HTTP API. Every AppError carries a machine-readable
// code, an HTTP status mapping and retryable detection.
package errors
