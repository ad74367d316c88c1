package schema

import (
	"context"
	"sort"
	"strings"

	apperrors "github.com/cemint/cemint-insights/errors"
	"github.com/cemint/cemint-insights/logger"
	"github.com/cemint/cemint-insights/storage"
)

// FileSuffix names schema documents: <stage>_schema.json.
const FileSuffix = "_schema.json"

// Registry maps stage names to schemas. It is built once and never changes.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry builds a registry from already parsed schemas.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.Stage] = s
	}
	return r
}

// LoadRegistry reads every <stage>_schema.json directly inside dir.
func LoadRegistry(ctx context.Context, store storage.Storage, dir string, log *logger.Logger) (*Registry, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("schema")

	listing, err := storage.ListDir(ctx, store, dir)
	if err != nil {
		return nil, apperrors.StorageError("list", dir, err)
	}

	r := &Registry{schemas: make(map[string]*Schema)}
	for _, f := range listing.Files {
		name := storage.Base(f.Path)
		if !strings.HasSuffix(name, FileSuffix) {
			continue
		}
		stage := strings.TrimSuffix(name, FileSuffix)
		data, err := storage.ReadFile(ctx, store, f.Path)
		if err != nil {
			return nil, apperrors.StorageError("read", f.Path, err)
		}
		s, err := Parse(stage, data)
		if err != nil {
			return nil, err
		}
		r.schemas[stage] = s
		log.Debug("schema loaded", logger.Fields(logger.FieldStage, stage, "fields", len(s.Fields)))
	}

	log.Info("schemas loaded", logger.Fields(logger.FieldPath, dir, "stages", r.Stages()))
	return r, nil
}

// Get returns the schema for stage.
func (r *Registry) Get(stage string) (*Schema, error) {
	s, ok := r.schemas[stage]
	if !ok {
		return nil, apperrors.SchemaNotFound(stage)
	}
	return s, nil
}

// Has reports whether a schema is registered for stage.
func (r *Registry) Has(stage string) bool {
	_, ok := r.schemas[stage]
	return ok
}

// Stages returns the registered stage names, sorted.
func (r *Registry) Stages() []string {
	stages := make([]string, 0, len(r.schemas))
	for s := range r.schemas {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	return stages
}

// Len returns the number of registered stages.
func (r *Registry) Len() int { return len(r.schemas) }
