// Package storage provides the object storage abstraction every pipeline
// read and write goes through.
//
// # Backends
//
//   - storage/local: local filesystem, the default for plant runs on disk
//   - storage/s3: Amazon S3 and S3-compatible stores such as MinIO
//   - storage/gcs: Google Cloud Storage
//
// Paths are slash-separated and relative to the backend root (base path or
// bucket). Directories are implied by key prefixes; ListDir derives the
// immediate children of a prefix on every backend.
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  s3:
//	    bucket: "plant-data"
//	    region: "eu-west-1"
package storage
