/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/registry"
	"github.com/suparena/recordstore/storagemodels"
	"github.com/suparena/recordstore/validation"
)

// Binding ties entity type T to its schema and validator.
type Binding[T any] struct {
	Schema    storagemodels.Schema
	validator *validation.Validator
	now       func() time.Time

	// soft delete marks, typed after the column's field
	live, deleted any
}

// Bind builds the binding for T. A zero schema means the one registered for T.
func Bind[T any](schema storagemodels.Schema) (*Binding[T], error) {
	var err error
	if schema.Key == "" && schema.Name == "" {
		schema, err = registry.SchemaFor[T]()
	} else {
		schema, err = registry.Complete[T](schema)
	}
	if err != nil {
		return nil, err
	}

	v, err := validation.New(schema)
	if err != nil {
		return nil, err
	}
	b := &Binding[T]{Schema: schema, validator: v, now: time.Now}
	if schema.SoftDelete != "" {
		b.live, b.deleted = int64(0), int64(1)
		for _, f := range codec.Fields(reflect.TypeFor[T]()) {
			if f.Column == schema.SoftDelete && f.Type.Kind() == reflect.Bool {
				b.live, b.deleted = false, true
			}
		}
	}
	return b, nil
}

// SetClock replaces the timestamp source.
func (b *Binding[T]) SetClock(now func() time.Time) {
	b.now = now
}

// Now returns the current time from the binding's clock, in UTC.
func (b *Binding[T]) Now() time.Time {
	return b.now().UTC()
}

// Name is the entity type name used in errors.
func (b *Binding[T]) Name() string {
	return b.Schema.Name
}

// Encode flattens entity into a column map.
func (b *Binding[T]) Encode(entity *T) (map[string]any, error) {
	return codec.ToMap(entity)
}

// Decode builds a T from a column map.
func (b *Binding[T]) Decode(row map[string]any) (*T, error) {
	out, err := codec.DecodeAs[T](row)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.Schema.Name, err)
	}
	return &out, nil
}

// Validate runs the schema checks on entity.
func (b *Binding[T]) Validate(entity *T, row map[string]any) error {
	return b.validator.Validate(entity, row)
}

// StampInsert sets both audit timestamps on entities implementing Stamper,
// and both actor columns on ActorStampers when ctx carries an actor.
func (b *Binding[T]) StampInsert(ctx context.Context, entity *T) {
	if s, ok := any(entity).(storagemodels.Stamper); ok {
		now := b.Now()
		s.StampCreated(now)
		s.StampUpdated(now)
	}
	if s, ok := any(entity).(storagemodels.ActorStamper); ok {
		if actor, ok := storagemodels.ActorFrom(ctx); ok {
			s.StampCreatedBy(actor)
			s.StampUpdatedBy(actor)
		}
	}
}

// StampUpdate sets the update timestamp and, when ctx carries an actor,
// the update actor.
func (b *Binding[T]) StampUpdate(ctx context.Context, entity *T) {
	if s, ok := any(entity).(storagemodels.Stamper); ok {
		s.StampUpdated(b.Now())
	}
	if s, ok := any(entity).(storagemodels.ActorStamper); ok {
		if actor, ok := storagemodels.ActorFrom(ctx); ok {
			s.StampUpdatedBy(actor)
		}
	}
}

// SoftDeletes reports whether deletes mark records instead of removing them.
func (b *Binding[T]) SoftDeletes() bool {
	return b.Schema.SoftDelete != ""
}

// Deleted reports whether row carries the soft delete mark.
func (b *Binding[T]) Deleted(row map[string]any) bool {
	return b.SoftDeletes() && !codec.IsZero(row[b.Schema.SoftDelete])
}

// MarkLive clears the soft delete mark on a row about to be written.
func (b *Binding[T]) MarkLive(row map[string]any) {
	if b.SoftDeletes() {
		row[b.Schema.SoftDelete] = b.live
	}
}

// LiveValue is the soft delete column value of live records, nil without
// a soft delete column.
func (b *Binding[T]) LiveValue() any { return b.live }

// DeletedValue is the soft delete column value of deleted records.
func (b *Binding[T]) DeletedValue() any { return b.deleted }

// Scope restricts pred to live records.
func (b *Binding[T]) Scope(pred filter.Predicate) filter.Predicate {
	if !b.SoftDeletes() {
		return pred
	}
	return pred.And(filter.Eq(b.Schema.SoftDelete, b.live))
}

// ParseKey validates id against the key kind and returns its typed form:
// int64 for serial keys, the canonical string otherwise.
func (b *Binding[T]) ParseKey(id string) (any, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, rserrors.NewInvalidArgumentError(b.Schema.Key, "key is empty")
	}
	switch b.Schema.KeyKind {
	case storagemodels.KeySerial:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n <= 0 {
			return nil, rserrors.NewInvalidArgumentError(b.Schema.Key, fmt.Sprintf("%q is not a positive integer", id))
		}
		return n, nil
	case storagemodels.KeyUUID:
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, rserrors.NewInvalidArgumentError(b.Schema.Key, fmt.Sprintf("%q is not a uuid", id))
		}
		return u.String(), nil
	default:
		return id, nil
	}
}

// KeyString renders a key value from a column map; empty when unset.
func (b *Binding[T]) KeyString(row map[string]any) string {
	v := row[b.Schema.Key]
	if codec.IsZero(v) {
		return ""
	}
	return fmt.Sprint(codec.Indirect(v))
}

// NewKey generates a key for uuid and string kinds.
func (b *Binding[T]) NewKey() string {
	return uuid.NewString()
}

// EntityKey parses the key held by an entity about to be updated.
func (b *Binding[T]) EntityKey(row map[string]any) (any, string, error) {
	id := b.KeyString(row)
	if id == "" {
		return nil, "", rserrors.NewInvalidArgumentError(b.Schema.Key, "key is required")
	}
	key, err := b.ParseKey(id)
	if err != nil {
		return nil, "", err
	}
	return key, fmt.Sprint(key), nil
}

// CheckFields validates a partial update: every name must be a non-key column.
func (b *Binding[T]) CheckFields(fields map[string]any) error {
	if len(fields) == 0 {
		return rserrors.NewInvalidArgumentError("fields", "no fields to update")
	}
	for col := range fields {
		if col == b.Schema.Key {
			return rserrors.NewInvalidArgumentError(col, "key column cannot be updated")
		}
		if b.SoftDeletes() && col == b.Schema.SoftDelete {
			return rserrors.NewInvalidArgumentError(col, "soft delete column is managed by delete")
		}
		if !b.Schema.HasColumn(col) {
			return rserrors.NewInvalidArgumentError(col, "unknown column")
		}
	}
	return nil
}

// Predicate checks that pred only references schema columns.
func (b *Binding[T]) Predicate(pred filter.Predicate) error {
	return pred.Validate(b.Schema.HasColumn)
}

// Page applies paging defaults, bounded by maxSize, and resolves the
// order column. The key column is the default order.
func (b *Binding[T]) Page(spec storagemodels.PageSpec, maxSize int) (storagemodels.PageSpec, error) {
	spec = spec.Normalize(maxSize)
	if spec.OrderBy == "" {
		spec.OrderBy = b.Schema.Key
		return spec, nil
	}
	if !b.Schema.HasColumn(spec.OrderBy) {
		return spec, rserrors.NewInvalidArgumentError("order", fmt.Sprintf("unknown column %q", spec.OrderBy))
	}
	return spec, nil
}

// SortRows orders rows in place by spec, with the key as tie-breaker.
func (b *Binding[T]) SortRows(rows []map[string]any, spec storagemodels.PageSpec) {
	key := b.Schema.Key
	less := func(i, j int) bool {
		if spec.OrderBy != key {
			c := compareValues(rows[i][spec.OrderBy], rows[j][spec.OrderBy])
			if c != 0 {
				if spec.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		c := compareValues(rows[i][key], rows[j][key])
		if spec.Desc && spec.OrderBy == key {
			return c > 0
		}
		return c < 0
	}
	sort.SliceStable(rows, less)
}

// compareValues orders nil first, then comparable values, then by text.
func compareValues(a, b any) int {
	a, b = codec.Indirect(a), codec.Indirect(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := filter.Compare(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Slice returns the page window of already sorted rows.
func Slice[R any](rows []R, spec storagemodels.PageSpec) []R {
	start := spec.Offset()
	if start < 0 || start >= len(rows) {
		return nil
	}
	end := start + spec.Size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
