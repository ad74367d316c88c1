// Package component defines the lifecycle interface shared by infrastructure
// pieces (storage, HTTP server, Kafka alert producer) and a registry that
// starts them in registration order and stops them in reverse.
package component
