/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"reflect"
	"sort"

	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/registry"
)

// FromDTO builds a predicate from the db-tagged fields of a request DTO.
// Modes come from the DTO's FilterModes method when it has one.
//
// A nil pointer, a non-pointer zero value or an empty string contributes
// nothing. A Contains field holding a string becomes a case-insensitive
// substring condition; every other present field becomes an equality.
// Conditions are AND-ed in field order. FromDTO never fails.
func FromDTO(dto any) Predicate {
	if isNil(dto) {
		return Predicate{}
	}
	var modes Modes
	if m, ok := dto.(Moded); ok {
		modes = m.FilterModes()
	}
	return fromStruct(dto, modes)
}

// FromEntity builds a predicate from an entity used as an example, with
// the Fuzzy columns of its registered schema matched by substring.
func FromEntity[T any](entity T) Predicate {
	modes := Modes{}
	if s, err := registry.SchemaFor[T](); err == nil {
		for _, c := range s.Fuzzy {
			modes[c] = Contains
		}
	}
	return fromStruct(entity, modes)
}

// Build builds a predicate from a column map. Keys are visited in sorted order.
func Build(values map[string]any, modes Modes) Predicate {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var p Predicate
	for _, c := range cols {
		if cond, ok := condition(c, values[c], modes[c]); ok {
			p.Conditions = append(p.Conditions, cond)
		}
	}
	return p
}

func fromStruct(v any, modes Modes) Predicate {
	var p Predicate
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return p
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return p
	}

	for _, f := range codec.Fields(rv.Type()) {
		fv := codec.FieldValue(rv, f)
		if !fv.IsValid() {
			continue
		}
		if cond, ok := condition(f.Column, fv.Interface(), modes[f.Column]); ok {
			p.Conditions = append(p.Conditions, cond)
		}
	}
	return p
}

// condition applies the presence rule and the column's mode to one value.
func condition(column string, raw any, mode Mode) (Condition, bool) {
	if raw == nil {
		return Condition{}, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Pointer && rv.IsZero() {
		return Condition{}, false
	}
	value := codec.Indirect(raw)
	if value == nil {
		return Condition{}, false
	}

	if s, ok := stringValue(value); ok {
		if s == "" {
			return Condition{}, false
		}
		if mode == Contains {
			return Like(column, s), true
		}
		return Eq(column, s), true
	}
	return Eq(column, value), true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// stringValue reports string-kinded values, including named string types.
func stringValue(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
