/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process implementation of datastore.DataStore[T]
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/storagemodels"
)

// Store keeps records as column maps keyed by their rendered key.
type Store[T any] struct {
	mu      sync.RWMutex
	rows    map[string]map[string]any
	seq     int64
	binding *datastore.Binding[T]
	logger  *slog.Logger
	maxPage int
}

// New creates an empty store for T.
func New[T any](opts ...Option) (*Store[T], error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	b, err := datastore.Bind[T](o.schema)
	if err != nil {
		return nil, err
	}
	if o.clock != nil {
		b.SetClock(o.clock)
	}
	return &Store[T]{
		rows:    make(map[string]map[string]any),
		binding: b,
		logger:  o.logger.With("store", "memory", "entity", b.Name()),
		maxPage: o.maxPageSize,
	}, nil
}

// Insert stores a new record, generating its key when unset.
func (m *Store[T]) Insert(ctx context.Context, entity T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := m.binding
	b.StampInsert(ctx, &entity)
	row, err := b.Encode(&entity)
	if err != nil {
		return nil, err
	}
	b.MarkLive(row)

	m.mu.Lock()
	defer m.mu.Unlock()

	nextSeq := m.seq
	id := b.KeyString(row)
	switch {
	case id == "" && b.Schema.KeyKind == storagemodels.KeySerial:
		nextSeq++
		row[b.Schema.Key] = nextSeq
		id = fmt.Sprint(nextSeq)
	case id == "":
		id = b.NewKey()
		row[b.Schema.Key] = id
	default:
		key, err := b.ParseKey(id)
		if err != nil {
			return nil, err
		}
		if n, ok := key.(int64); ok && n > nextSeq {
			nextSeq = n
		}
		row[b.Schema.Key] = key
		id = fmt.Sprint(key)
	}

	saved, row, err := m.normalize(row)
	if err != nil {
		return nil, err
	}
	if _, exists := m.rows[id]; exists {
		return nil, errors.NewConflictError(b.Name(), "", id)
	}
	if err := m.checkUnique(row, ""); err != nil {
		return nil, err
	}

	m.rows[id] = row
	m.seq = nextSeq
	m.logger.Debug("inserted record", "key", id)
	return saved, nil
}

// FindByID returns the record with key id, or nil when there is none.
func (m *Store[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := m.binding.ParseKey(id)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row, exists := m.rows[fmt.Sprint(key)]
	if !exists || m.binding.Deleted(row) {
		return nil, nil
	}
	return m.binding.Decode(row)
}

// Update replaces an existing record.
func (m *Store[T]) Update(ctx context.Context, entity T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := m.binding
	b.StampUpdate(ctx, &entity)
	row, err := b.Encode(&entity)
	if err != nil {
		return nil, err
	}
	key, id, err := b.EntityKey(row)
	if err != nil {
		return nil, err
	}
	row[b.Schema.Key] = key
	b.MarkLive(row)

	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.rows[id]; !exists || b.Deleted(current) {
		return nil, errors.NewNotFoundError(b.Name(), id)
	}
	saved, row, err := m.normalize(row)
	if err != nil {
		return nil, err
	}
	if err := m.checkUnique(row, id); err != nil {
		return nil, err
	}

	m.rows[id] = row
	m.logger.Debug("updated record", "key", id)
	return saved, nil
}

// UpdateFields changes the named columns of an existing record.
func (m *Store[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := m.binding
	key, err := b.ParseKey(id)
	if err != nil {
		return nil, err
	}
	if err := b.CheckFields(fields); err != nil {
		return nil, err
	}
	id = fmt.Sprint(key)

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.rows[id]
	if !exists || b.Deleted(current) {
		return nil, errors.NewNotFoundError(b.Name(), id)
	}
	merged := codec.Clone(current)
	for col, v := range fields {
		merged[col] = codec.Indirect(v)
	}
	entity, err := b.Decode(merged)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("fields", err.Error())
	}
	b.StampUpdate(ctx, entity)
	row, err := b.Encode(entity)
	if err != nil {
		return nil, err
	}

	saved, row, err := m.normalize(row)
	if err != nil {
		return nil, err
	}
	if err := m.checkUnique(row, id); err != nil {
		return nil, err
	}

	m.rows[id] = row
	m.logger.Debug("updated record fields", "key", id, "fields", len(fields))
	return saved, nil
}

// DeleteByID removes the record with key id, or marks it when the schema
// has a soft delete column, and reports whether a live record existed.
func (m *Store[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := m.binding.ParseKey(id)
	if err != nil {
		return false, err
	}
	id = fmt.Sprint(key)

	m.mu.Lock()
	defer m.mu.Unlock()

	row, exists := m.rows[id]
	if !exists || m.binding.Deleted(row) {
		return false, nil
	}
	if m.binding.SoftDeletes() {
		marked := codec.Clone(row)
		marked[m.binding.Schema.SoftDelete] = m.binding.DeletedValue()
		m.rows[id] = marked
		m.logger.Debug("marked record deleted", "key", id)
		return true, nil
	}
	delete(m.rows, id)
	m.logger.Debug("deleted record", "key", id)
	return true, nil
}

// List returns one page of the records matching pred.
func (m *Store[T]) List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := m.binding
	if err := b.Predicate(pred); err != nil {
		return nil, err
	}
	spec, err := b.Page(page, m.maxPage)
	if err != nil {
		return nil, err
	}

	matches := m.match(pred)
	b.SortRows(matches, spec)

	window := datastore.Slice(matches, spec)
	items := make([]T, 0, len(window))
	for _, row := range window {
		item, err := b.Decode(row)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	m.logger.Debug("listed records", "predicate", pred.String(), "total", len(matches), "page", spec.Page)
	return storagemodels.NewPage(items, int64(len(matches)), spec), nil
}

// Stream sends every record matching pred, in key order, over the returned channel.
func (m *Store[T]) Stream(ctx context.Context, pred filter.Predicate, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultChan := make(chan storagemodels.StreamResult[T], options.BufferSize)

	go func() {
		defer close(resultChan)

		send := func(r storagemodels.StreamResult[T]) bool {
			select {
			case <-ctx.Done():
				return false
			case resultChan <- r:
				return true
			}
		}

		if err := m.binding.Predicate(pred); err != nil {
			send(storagemodels.StreamResult[T]{Error: err})
			return
		}
		matches := m.match(pred)
		m.binding.SortRows(matches, storagemodels.PageSpec{OrderBy: m.binding.Schema.Key})

		pageSize := int(options.PageSize)
		if pageSize <= 0 {
			pageSize = len(matches)
		}
		progress := storagemodels.StreamProgress{StartTime: time.Now()}
		reportProgress := func() {
			if options.ProgressHandler == nil {
				return
			}
			if elapsed := time.Since(progress.StartTime).Seconds(); elapsed > 0 {
				progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
			}
			options.ProgressHandler(progress)
		}

		for i, row := range matches {
			if i%pageSize == 0 {
				progress.PagesProcessed++
			}
			result := storagemodels.StreamResult[T]{
				Raw: row,
				Meta: storagemodels.StreamMeta{
					Index:      int64(i),
					PageNumber: progress.PagesProcessed,
					Timestamp:  time.Now(),
				},
			}
			item, err := m.binding.Decode(row)
			if err != nil {
				result.Error = err
				progress.Errors = append(progress.Errors, err)
			} else {
				result.Item = *item
			}

			if !send(result) {
				return
			}
			progress.ItemsProcessed++
			if result.Error != nil && options.ErrorHandler != nil && !options.ErrorHandler(result.Error) {
				return
			}
			// one report per backend-sized page
			if (i+1)%pageSize == 0 || i == len(matches)-1 {
				reportProgress()
			}
		}
		if len(matches) == 0 {
			progress.PagesProcessed = 1
			reportProgress()
		}
	}()

	return resultChan
}

// match returns copies of the live rows satisfying pred.
func (m *Store[T]) match(pred filter.Predicate) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]map[string]any, 0, len(m.rows))
	for _, row := range m.rows {
		if !m.binding.Deleted(row) && pred.Match(row) {
			out = append(out, codec.Clone(row))
		}
	}
	return out
}

// normalize decodes row into T, validates it and re-encodes it so stored
// values carry the entity's field types.
func (m *Store[T]) normalize(row map[string]any) (*T, map[string]any, error) {
	b := m.binding
	entity, err := b.Decode(row)
	if err != nil {
		return nil, nil, errors.NewInvalidArgumentError(b.Name(), err.Error())
	}
	canonical, err := b.Encode(entity)
	if err != nil {
		return nil, nil, err
	}
	if err := b.Validate(entity, canonical); err != nil {
		return nil, nil, err
	}
	return entity, canonical, nil
}

// checkUnique reports a conflict on any unique column shared with another
// row. Nil values never conflict. Callers hold the write lock.
func (m *Store[T]) checkUnique(row map[string]any, self string) error {
	for _, col := range m.binding.Schema.Unique {
		v := codec.Indirect(row[col])
		if v == nil {
			continue
		}
		for id, other := range m.rows {
			if id == self {
				continue
			}
			if reflect.DeepEqual(codec.Indirect(other[col]), v) {
				return errors.NewConflictError(m.binding.Name(), col, fmt.Sprint(v))
			}
		}
	}
	return nil
}

// Count returns the number of stored records
func (m *Store[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Clear removes all data and resets the key sequence
func (m *Store[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string]map[string]any)
	m.seq = 0
}
