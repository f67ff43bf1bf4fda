package service

import (
	"reflect"
	"strings"

	"github.com/cloo-solutions/finder/internal/domain"
)

// Named lets an entity choose the name it registers under. Entities without
// it register under their Go type name.
type Named interface {
	EntityName() string
}

// Registry maps entity names to searchable entities. It is filled once at
// startup and read concurrently afterwards.
type Registry struct {
	entities map[string]domain.Searchable
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]domain.Searchable)}
}

// Register validates each entity and stores it under its name and its bucket
// key, so both "Product" and "products" resolve it. A later registration of
// the same name replaces the earlier one.
func (r *Registry) Register(entities ...domain.Searchable) error {
	for _, entity := range entities {
		name := EntityName(entity)
		cfg, err := domain.Describe(entity, name)
		if err != nil {
			return err
		}

		if _, exists := r.entities[name]; !exists {
			r.order = append(r.order, name)
		}
		r.entities[name] = entity
		if cfg.Key != name {
			r.entities[cfg.Key] = entity
		}
	}
	return nil
}

// Lookup returns the entity registered under name. Matching is exact first,
// then case-insensitive.
func (r *Registry) Lookup(name string) (domain.Searchable, bool) {
	if entity, ok := r.entities[name]; ok {
		return entity, true
	}
	for registered, entity := range r.entities {
		if strings.EqualFold(registered, name) {
			return entity, true
		}
	}
	return nil, false
}

// Names returns the registered entity names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// resolve turns one argument of Finder.Of into an entity and the name its
// defaults derive from. Accepted are registered names, entity values and
// reflect.Type values of entity types.
func (r *Registry) resolve(arg any) (domain.Searchable, string, error) {
	switch v := arg.(type) {
	case string:
		entity, ok := r.Lookup(v)
		if !ok {
			return nil, "", domain.ErrInvalidSearchableEntity
		}
		return entity, EntityName(entity), nil
	case reflect.Type:
		entity, ok := instantiate(v)
		if !ok {
			return nil, "", domain.ErrInvalidSearchableEntity
		}
		return entity, EntityName(entity), nil
	case domain.Searchable:
		return v, EntityName(v), nil
	default:
		return nil, "", domain.ErrInvalidSearchableEntity
	}
}

func instantiate(t reflect.Type) (domain.Searchable, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	ptr := reflect.New(t)
	if entity, ok := ptr.Elem().Interface().(domain.Searchable); ok {
		return entity, true
	}
	entity, ok := ptr.Interface().(domain.Searchable)
	return entity, ok
}

// EntityName is the registry name of an entity: its EntityName method when
// present, otherwise its Go type name without pointer indirections.
func EntityName(entity domain.Searchable) string {
	if n, ok := entity.(Named); ok {
		return n.EntityName()
	}
	t := reflect.TypeOf(entity)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
