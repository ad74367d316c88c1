package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/storage"
	"github.com/cemint/cemint-insights/validation"
)

// VersionLayout stamps saved model files.
const VersionLayout = "20060102_150405"

const fileExt = ".json"

type envelope struct {
	Name    string          `json:"name"`
	Kind    Kind            `json:"kind"`
	SavedAt time.Time       `json:"saved_at"`
	Model   json.RawMessage `json:"model"`
}

// Entry describes one saved model version.
type Entry struct {
	Name    string    `json:"name"`
	Version string    `json:"version"`
	Path    string    `json:"path"`
	SavedAt time.Time `json:"saved_at"`
}

// Registry versions models as <dir>/<name>_<version>.json.
type Registry struct {
	store storage.Storage
	dir   string
	now   func() time.Time
	log   *logger.Logger
}

// NewRegistry creates a Registry rooted at dir.
func NewRegistry(store storage.Storage, dir string, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		store: store,
		dir:   dir,
		now:   time.Now,
		log:   log.WithComponent("model"),
	}
}

// Save writes m as a new version of name and returns its path.
func (r *Registry) Save(ctx context.Context, name string, m Model) (string, error) {
	if err := validation.New().Required("name", name).Name("name", name).Err(); err != nil {
		return "", err
	}
	body, err := json.Marshal(m)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	now := r.now().UTC()
	data, err := json.MarshalIndent(envelope{Name: name, Kind: m.Kind(), SavedAt: now, Model: body}, "", "  ")
	if err != nil {
		return "", apperrors.Internal(err)
	}

	p := storage.Join(r.dir, name+"_"+now.Format(VersionLayout)+fileExt)
	if err := storage.WriteFile(ctx, r.store, p, data); err != nil {
		return "", apperrors.StorageError("write", p, err)
	}
	r.log.Info("model saved", logger.Fields("model", name, logger.FieldPath, p))
	return p, nil
}

// Load returns the latest version of name.
func (r *Registry) Load(ctx context.Context, name string) (Model, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var latest *Entry
	for i := range entries {
		if entries[i].Name == name {
			latest = &entries[i]
		}
	}
	if latest == nil {
		return nil, apperrors.ModelNotFound(name)
	}

	data, err := storage.ReadFile(ctx, r.store, latest.Path)
	if err != nil {
		return nil, apperrors.StorageError("read", latest.Path, err)
	}
	m, err := decode(data)
	if err != nil {
		return nil, apperrors.InvalidFormat("model", err.Error()).WithDetail(logger.FieldPath, latest.Path)
	}
	r.log.Debug("model loaded", logger.Fields("model", name, "version", latest.Version))
	return m, nil
}

// List returns every saved version, ordered by name then version.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	listing, err := storage.ListDir(ctx, r.store, r.dir)
	if err != nil {
		return nil, apperrors.StorageError("list", r.dir, err)
	}
	var out []Entry
	for _, f := range listing.Files {
		if e, ok := parseEntry(f.Path); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func parseEntry(p string) (Entry, bool) {
	base, ok := strings.CutSuffix(storage.Base(p), fileExt)
	if !ok || len(base) <= len(VersionLayout)+1 {
		return Entry{}, false
	}
	cut := len(base) - len(VersionLayout)
	name, version := base[:cut-1], base[cut:]
	if base[cut-1] != '_' {
		return Entry{}, false
	}
	ts, err := time.Parse(VersionLayout, version)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Name: name, Version: version, Path: p, SavedAt: ts}, true
}

func decode(data []byte) (Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	var m Model
	switch env.Kind {
	case KindRegressor:
		m = &LinearRegressor{}
	case KindClassifier:
		m = &CentroidClassifier{}
	default:
		return nil, fmt.Errorf("unknown model kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Model, m); err != nil {
		return nil, err
	}
	return m, nil
}
