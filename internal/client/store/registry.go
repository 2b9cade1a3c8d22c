package store

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
)

var ErrUnknownKind = errors.New("no store for object type")

// ResourceStore is the per-kind store of backend resources.
type ResourceStore = Store[models.Resource]

// Registry dispatches an ObjectType to its ResourceStore. The set of stores
// is fixed at construction from models.ObjectTypes.
type Registry struct {
	stores map[models.ObjectType]*ResourceStore
}

func NewRegistry() *Registry {
	r := &Registry{stores: make(map[models.ObjectType]*ResourceStore, len(models.ObjectTypes))}
	for _, k := range models.ObjectTypes {
		r.stores[k] = New[models.Resource]()
	}
	return r
}

// Store returns the store for kind.
func (r *Registry) Store(kind models.ObjectType) (*ResourceStore, error) {
	s, ok := r.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// MustStore is Store for kinds known to be valid; it panics otherwise.
func (r *Registry) MustStore(kind models.ObjectType) *ResourceStore {
	s, err := r.Store(kind)
	if err != nil {
		panic(err)
	}
	return s
}

// Snapshot copies every store's content, keyed by kind.
func (r *Registry) Snapshot() map[models.ObjectType][]models.Resource {
	out := make(map[models.ObjectType][]models.Resource, len(r.stores))
	for k, s := range r.stores {
		if items := s.All(); len(items) > 0 {
			out[k] = items
		}
	}
	return out
}

// Restore loads a snapshot, merging into current content. Unknown kinds are
// reported and skipped.
func (r *Registry) Restore(snapshot map[models.ObjectType][]models.Resource) error {
	var errs []error
	for k, items := range snapshot {
		s, err := r.Store(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.AddMany(items)
	}
	return errors.Join(errs...)
}
