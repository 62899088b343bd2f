/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/storagemodels"
)

// SchemaRegistry maps Go types to their record schemas.

var (
	schemaRegistry = make(map[reflect.Type]storagemodels.Schema)
	mu             sync.RWMutex
)

// Register completes schema for type T and records it.
// Registering the same type or entity name twice is an error.
func Register[T any](schema storagemodels.Schema) error {
	t := typeOf[T]()
	completed, err := complete(t, schema)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := schemaRegistry[t]; exists {
		return fmt.Errorf("schema registry: type %s already registered", t)
	}
	if _, exists := nameRegistry[completed.Name]; exists {
		return fmt.Errorf("schema registry: entity name %q already registered", completed.Name)
	}
	schemaRegistry[t] = completed
	nameRegistry[completed.Name] = t
	return nil
}

// MustRegister is Register for init functions and generated code.
func MustRegister[T any](schema storagemodels.Schema) {
	if err := Register[T](schema); err != nil {
		panic(err)
	}
}

// SchemaFor returns the schema registered for T.
func SchemaFor[T any]() (storagemodels.Schema, error) {
	t := typeOf[T]()

	mu.RLock()
	defer mu.RUnlock()
	s, ok := schemaRegistry[t]
	if !ok {
		return storagemodels.Schema{}, fmt.Errorf("%w %s", rserrors.ErrNoSchema, t)
	}
	return s, nil
}

// Complete checks schema against T without registering it.
func Complete[T any](schema storagemodels.Schema) (storagemodels.Schema, error) {
	return complete(typeOf[T](), schema)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func complete(t reflect.Type, s storagemodels.Schema) (storagemodels.Schema, error) {
	if t.Kind() != reflect.Struct {
		return s, fmt.Errorf("schema registry: %s is not a struct type", t)
	}
	if s.Name == "" {
		s.Name = t.Name()
	}
	if s.Table == "" {
		s.Table = strings.ToLower(s.Name)
	}

	tagged := codec.Columns(t)
	if len(s.Columns) == 0 {
		s.Columns = tagged
	} else {
		for _, c := range s.Columns {
			if !contains(tagged, c) {
				return s, fmt.Errorf("schema registry: %s has no field tagged db:%q", t, c)
			}
		}
	}
	if len(s.Columns) == 0 {
		return s, fmt.Errorf("schema registry: %s has no db-tagged fields", t)
	}

	if s.Key == "" {
		return s, fmt.Errorf("schema registry: %s: key column is required", s.Name)
	}
	check := func(kind string, cols ...string) error {
		for _, c := range cols {
			if !s.HasColumn(c) {
				return fmt.Errorf("schema registry: %s: %s column %q is not a persisted column", s.Name, kind, c)
			}
		}
		return nil
	}
	if err := check("key", s.Key); err != nil {
		return s, err
	}
	if err := checkKeyType(t, s); err != nil {
		return s, err
	}
	if err := check("unique", s.Unique...); err != nil {
		return s, err
	}
	if err := check("fuzzy", s.Fuzzy...); err != nil {
		return s, err
	}
	for c := range s.Formats {
		if err := check("format", c); err != nil {
			return s, err
		}
	}
	if contains(s.Unique, s.Key) {
		return s, fmt.Errorf("schema registry: %s: key column %q listed as unique", s.Name, s.Key)
	}
	if s.SoftDelete != "" {
		if err := check("soft delete", s.SoftDelete); err != nil {
			return s, err
		}
		if s.SoftDelete == s.Key || contains(s.Unique, s.SoftDelete) {
			return s, fmt.Errorf("schema registry: %s: soft delete column %q must be a plain column", s.Name, s.SoftDelete)
		}
		if err := checkSoftDeleteType(t, s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// checkSoftDeleteType requires an integer or boolean soft delete field.
func checkSoftDeleteType(t reflect.Type, s storagemodels.Schema) error {
	for _, f := range codec.Fields(t) {
		if f.Column != s.SoftDelete {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return nil
		}
		return fmt.Errorf("schema registry: %s: soft delete column %q cannot be held in a %s field", s.Name, s.SoftDelete, f.Type)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// checkKeyType requires an integer key field for serial keys and a string
// key field otherwise.
func checkKeyType(t reflect.Type, s storagemodels.Schema) error {
	for _, f := range codec.Fields(t) {
		if f.Column != s.Key {
			continue
		}
		kind := f.Type.Kind()
		switch s.KeyKind {
		case storagemodels.KeySerial:
			switch kind {
			case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
				return nil
			}
		case storagemodels.KeyUUID, storagemodels.KeyString:
			if kind == reflect.String {
				return nil
			}
		default:
			return fmt.Errorf("schema registry: %s: unknown key kind %d", s.Name, s.KeyKind)
		}
		return fmt.Errorf("schema registry: %s: %s key %q cannot be held in a %s field", s.Name, s.KeyKind, s.Key, f.Type)
	}
	return nil
}
