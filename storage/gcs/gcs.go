package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderGCS, func(providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("gcs: expected *gcs.Config, got %T", providerCfg)
			}
			c = pc
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		log.Debug("gcs storage", logger.Fields("bucket", c.Bucket))
		return NewStorage(context.Background(), c)
	})
}

// Storage implements storage.Storage on a Google Cloud Storage bucket.
type Storage struct {
	client *gcstorage.Client
	bucket string
}

// NewStorage creates a GCS client for cfg.Bucket.
func NewStorage(ctx context.Context, cfg *Config) (*Storage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

// Close releases the underlying client.
func (s *Storage) Close() error {
	return s.client.Close()
}

// Upload streams reader into the object at path.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = storage.ContentType(path)
	if _, err := io.Copy(w, reader); err != nil {
		w.Close() //nolint:errcheck
		return fmt.Errorf("storage: gcs upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: gcs upload: %w", err)
	}
	return nil
}

// Download returns a reader for the object at path.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: gcs download: %w", err)
	}
	return r, nil
}

// Exists checks whether an object exists at path.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: gcs attrs: %w", err)
	}
	return true, nil
}

// List returns metadata for all objects whose name starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})

	var files []storage.FileInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: gcs list: %w", err)
		}
		files = append(files, storage.FileInfo{
			Path:         attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
			ContentType:  attrs.ContentType,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

var _ storage.Storage = (*Storage)(nil)
