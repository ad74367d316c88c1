// Package server runs the Gin HTTP engine behind an h2c-capable net/http
// server and plugs it into the component lifecycle.
//
// Middleware (server/middleware): panic recovery, request IDs, OpenTelemetry
// request spans, CORS, request body limits and request logging. Endpoints (server/endpoint): /health.
package server
