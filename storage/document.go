package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ReadFile downloads the whole object at p. Schemas, scalers, stats and
// model envelopes are small enough to hold in memory.
func ReadFile(ctx context.Context, s Storage, p string) ([]byte, error) {
	rc, err := s.Download(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// WriteFile uploads data to p, replacing any existing object.
func WriteFile(ctx context.Context, s Storage, p string, data []byte) error {
	return s.Upload(ctx, p, bytes.NewReader(data))
}

// WriteJSON stores v as indented JSON at p.
func WriteJSON(ctx context.Context, s Storage, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", p, err)
	}
	return WriteFile(ctx, s, p, append(data, '\n'))
}
