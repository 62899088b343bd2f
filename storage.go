/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/recordstore/datastore"
	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/registry"
)

// Storage manages one DataStore per entity type. Stores are keyed by the
// entity's registered schema name, so registration requires the type to be
// known to the registry.
//
// Storage is safe for concurrent use.
type Storage struct {
	mu      sync.RWMutex
	typed   map[reflect.Type]any
	handles map[string]Handle
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{
		typed:   make(map[reflect.Type]any),
		handles: make(map[string]Handle),
	}
}

// Register adds the store for entity type T.
func Register[T any](s *Storage, ds datastore.DataStore[T]) error {
	schema, err := registry.SchemaFor[T]()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if _, exists := s.typed[typ]; exists {
		return fmt.Errorf("datastore for %q already registered", schema.Name)
	}
	s.typed[typ] = ds
	s.handles[schema.Name] = &handle[T]{name: schema.Name, schema: schema, ds: ds}
	return nil
}

// Get returns the store registered for T.
func Get[T any](s *Storage) (datastore.DataStore[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typ := reflect.TypeOf((*T)(nil)).Elem()
	ds, exists := s.typed[typ]
	if !exists {
		return nil, rserrors.NewNotFoundError("datastore", typ.String())
	}
	return ds.(datastore.DataStore[T]), nil
}

// Lookup returns the type-erased handle of the entity called name.
func (s *Storage) Lookup(name string) (Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.handles[name]
	if !exists {
		return nil, rserrors.NewNotFoundError("datastore", name)
	}
	return h, nil
}

// Remove drops the store of the entity called name.
func (s *Storage) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.handles[name]
	if !exists {
		return rserrors.NewNotFoundError("datastore", name)
	}
	delete(s.handles, name)
	delete(s.typed, h.Type())
	return nil
}

// Names returns the registered entity names, sorted.
func (s *Storage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
