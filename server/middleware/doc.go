// Package middleware provides the Gin middleware the API server installs.
package middleware
