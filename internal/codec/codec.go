/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package codec converts records to and from column maps keyed by db tags.
package codec

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag naming a persisted column.
const TagName = "db"

// Field is one persisted struct field.
type Field struct {
	Column string
	Name   string
	Index  []int
	Type   reflect.Type
}

var fieldCache sync.Map // reflect.Type -> []Field

// Fields returns the db-tagged fields of struct type t in declaration order.
// Untagged embedded structs are flattened; fields tagged db:"-" are skipped.
func Fields(t reflect.Type) []Field {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}
	fields := collect(t, nil)
	fieldCache.Store(t, fields)
	return fields
}

func collect(t reflect.Type, prefix []int) []Field {
	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup(TagName)
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}

		index := append(append([]int(nil), prefix...), i)
		if sf.Anonymous && !hasTag {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, collect(ft, index)...)
			}
			continue
		}
		if !sf.IsExported() || !hasTag || name == "" {
			continue
		}
		out = append(out, Field{Column: name, Name: sf.Name, Index: index, Type: sf.Type})
	}
	return out
}

// Columns returns the column names of struct type t.
func Columns(t reflect.Type) []string {
	fields := Fields(t)
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}

// FieldValue returns the value of f in v, or an invalid Value when an
// embedded pointer on the path is nil.
func FieldValue(v reflect.Value, f Field) reflect.Value {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	for i, idx := range f.Index {
		if i > 0 {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}
				}
				v = v.Elem()
			}
		}
		v = v.Field(idx)
	}
	return v
}

// ToMap flattens a struct (or pointer to struct) into a column map.
// Nil pointers become nil and non-nil pointers are dereferenced.
func ToMap(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("codec: nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("codec: expected struct, got %s", rv.Kind())
	}

	fields := Fields(rv.Type())
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		fv := FieldValue(rv, f)
		if !fv.IsValid() {
			out[f.Column] = nil
			continue
		}
		out[f.Column] = Indirect(fv.Interface())
	}
	return out, nil
}

// Indirect dereferences pointer values; a nil pointer yields nil.
func Indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// IsZero reports whether v is nil, a nil pointer or its type's zero value.
func IsZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return rv.IsNil()
	}
	return rv.IsZero()
}

// Decode fills out, a pointer to struct, from a column map.
func Decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	return nil
}

// DecodeAs decodes a column map into a new T.
func DecodeAs[T any](in map[string]any) (T, error) {
	var out T
	err := Decode(in, &out)
	return out, err
}

// Clone copies a column map. Values are shared.
func Clone(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
