package component

import "context"

// Component is a lifecycle-managed piece of the service: the storage
// backend, the alert producer, the ETL services or the HTTP server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is the one-line startup summary of a component.
type Description struct {
	// Name is the display name; empty falls back to Component.Name.
	Name string
	// Type groups components: "storage", "server", "kafka", "etl".
	Type string
	// Details is free text such as "provider=s3 location=s3://plant-data".
	Details string
}

// Describable is implemented by components that report their settings at
// startup.
type Describable interface {
	Describe() Description
}
