package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"time"
)

// ErrNotFound is wrapped by Download when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes one stored object. Path is slash-separated and
// relative to the backend root.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is the object store holding raw runs, schemas, processed
// artifacts and models. Paths are slash-separated keys; directories exist
// only as key prefixes.
type Storage interface {
	// Upload replaces the object at p with the contents of r.
	Upload(ctx context.Context, p string, r io.Reader) error
	// Download opens the object at p. The caller closes it.
	Download(ctx context.Context, p string) (io.ReadCloser, error)
	Exists(ctx context.Context, p string) (bool, error)
	// List returns every object under prefix, sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

var contentTypes = map[string]string{
	".csv":     "text/csv",
	".parquet": "application/vnd.apache.parquet",
	".json":    "application/json",
}

// ContentType guesses the media type of p from its extension.
func ContentType(p string) string {
	ext := path.Ext(p)
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
