// Package logger provides structured logging for cemint services using
// zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("loader")
//	log.Warn("timestamp column missing", logger.Fields("table", name))
package logger
