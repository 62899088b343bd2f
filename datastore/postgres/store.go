/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/suparena/recordstore/datastore"
	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

// psql is the statement builder with PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements datastore.DataStore[T] over one PostgreSQL table.
type Store[T any] struct {
	q       Querier
	binding *datastore.Binding[T]
	logger  *slog.Logger
	maxPage int
	columns string
}

// New creates a store for T reading and writing through q.
func New[T any](q Querier, opts ...Option) (*Store[T], error) {
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
		q:       q,
		binding: b,
		logger:  o.logger.With("store", "postgres", "table", b.Schema.Table),
		maxPage: o.maxPageSize,
		columns: strings.Join(b.Schema.Columns, ", "),
	}, nil
}

func (s *Store[T]) querier(ctx context.Context) Querier {
	return querierFromCtx(ctx, s.q)
}

func (s *Store[T]) returning() string {
	return "RETURNING " + s.columns
}

// Insert writes a new row. Serial keys left at zero are assigned by the database.
func (s *Store[T]) Insert(ctx context.Context, entity T) (*T, error) {
	b := s.binding
	b.StampInsert(ctx, &entity)
	row, err := b.Encode(&entity)
	if err != nil {
		return nil, err
	}
	b.MarkLive(row)

	id := b.KeyString(row)
	switch {
	case id == "" && b.Schema.KeyKind == storagemodels.KeySerial:
		delete(row, b.Schema.Key)
	case id == "":
		id = b.NewKey()
		row[b.Schema.Key] = id
	default:
		key, err := b.ParseKey(id)
		if err != nil {
			return nil, err
		}
		row[b.Schema.Key] = key
		id = fmt.Sprint(key)
	}
	if err := b.Validate(&entity, row); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(row))
	vals := make([]any, 0, len(row))
	for _, c := range b.Schema.Columns {
		if v, ok := row[c]; ok {
			cols = append(cols, c)
			vals = append(vals, v)
		}
	}

	query, args, err := psql.Insert(b.Schema.Table).
		Columns(cols...).
		Values(vals...).
		Suffix(s.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	var saved T
	if err := pgxscan.Get(ctx, s.querier(ctx), &saved, query, args...); err != nil {
		return nil, mapError(err, b.Name(), id)
	}
	s.logger.DebugContext(ctx, "inserted record", "sql", query)
	return &saved, nil
}

// FindByID returns the row with key id, or nil when there is none.
func (s *Store[T]) FindByID(ctx context.Context, id string) (*T, error) {
	b := s.binding
	key, err := b.ParseKey(id)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(b.Schema.Columns...).
		From(b.Schema.Table).
		Where(s.keyed(key)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var found T
	if err := pgxscan.Get(ctx, s.querier(ctx), &found, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, mapError(err, b.Name(), id)
	}
	return &found, nil
}

// Update overwrites every non-key column of an existing row.
func (s *Store[T]) Update(ctx context.Context, entity T) (*T, error) {
	b := s.binding
	b.StampUpdate(ctx, &entity)
	row, err := b.Encode(&entity)
	if err != nil {
		return nil, err
	}
	b.MarkLive(row)
	key, id, err := b.EntityKey(row)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(&entity, row); err != nil {
		return nil, err
	}

	set := make(map[string]any, len(row))
	for _, c := range b.Schema.DataColumns() {
		set[c] = row[c]
	}
	return s.update(ctx, key, id, set)
}

// UpdateFields changes the named columns of an existing row. The merged
// record is validated before anything is written.
func (s *Store[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) (*T, error) {
	b := s.binding
	key, err := b.ParseKey(id)
	if err != nil {
		return nil, err
	}
	if err := b.CheckFields(fields); err != nil {
		return nil, err
	}
	id = fmt.Sprint(key)

	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, rserrors.NewNotFoundError(b.Name(), id)
	}

	merged, err := b.Encode(current)
	if err != nil {
		return nil, err
	}
	for col, v := range fields {
		merged[col] = v
	}
	entity, err := b.Decode(merged)
	if err != nil {
		return nil, rserrors.NewInvalidArgumentError("fields", err.Error())
	}
	before, err := b.Encode(entity)
	if err != nil {
		return nil, err
	}
	b.StampUpdate(ctx, entity)
	after, err := b.Encode(entity)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(entity, after); err != nil {
		return nil, err
	}

	// named fields plus whatever stamping changed
	set := make(map[string]any, len(fields)+1)
	for col := range fields {
		set[col] = after[col]
	}
	for _, col := range b.Schema.DataColumns() {
		if !reflect.DeepEqual(before[col], after[col]) {
			set[col] = after[col]
		}
	}
	return s.update(ctx, key, id, set)
}

func (s *Store[T]) update(ctx context.Context, key any, id string, set map[string]any) (*T, error) {
	b := s.binding
	query, args, err := psql.Update(b.Schema.Table).
		SetMap(set).
		Where(s.keyed(key)).
		Suffix(s.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var saved T
	if err := pgxscan.Get(ctx, s.querier(ctx), &saved, query, args...); err != nil {
		return nil, mapError(err, b.Name(), id)
	}
	s.logger.DebugContext(ctx, "updated record", "sql", query)
	return &saved, nil
}

// DeleteByID removes the row with key id, or marks it when the schema has
// a soft delete column, and reports whether a live row existed.
func (s *Store[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	b := s.binding
	key, err := b.ParseKey(id)
	if err != nil {
		return false, err
	}

	var stmt sq.Sqlizer = psql.Delete(b.Schema.Table).Where(s.keyed(key))
	if b.SoftDeletes() {
		stmt = psql.Update(b.Schema.Table).
			Set(b.Schema.SoftDelete, b.DeletedValue()).
			Where(s.keyed(key))
	}
	query, args, err := stmt.ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	tag, err := s.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return false, mapError(err, b.Name(), id)
	}
	return tag.RowsAffected() > 0, nil
}

// List counts the matching rows and returns one ordered page of them.
func (s *Store[T]) List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[T], error) {
	b := s.binding
	if err := b.Predicate(pred); err != nil {
		return nil, err
	}
	spec, err := b.Page(page, s.maxPage)
	if err != nil {
		return nil, err
	}
	where, hasWhere, err := compile(b.Scope(pred))
	if err != nil {
		return nil, err
	}

	count := psql.Select("COUNT(*)").From(b.Schema.Table)
	if hasWhere {
		count = count.Where(where)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}

	var total int64
	if err := s.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, mapError(err, b.Name(), "list")
	}

	items := []T{}
	if int64(spec.Offset()) < total {
		sel := psql.Select(b.Schema.Columns...).
			From(b.Schema.Table).
			OrderBy(orderBy(spec, b.Schema.Key)...).
			Limit(uint64(spec.Size)).
			Offset(uint64(spec.Offset()))
		if hasWhere {
			sel = sel.Where(where)
		}
		query, args, err := sel.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build list: %w", err)
		}
		if err := pgxscan.Select(ctx, s.querier(ctx), &items, query, args...); err != nil {
			return nil, mapError(err, b.Name(), "list")
		}
		s.logger.DebugContext(ctx, "listed records", "sql", query, "total", total)
	}

	return storagemodels.NewPage(items, total, spec), nil
}

// keyed selects the live row with key.
func (s *Store[T]) keyed(key any) sq.Sqlizer {
	b := s.binding
	if !b.SoftDeletes() {
		return sq.Eq{b.Schema.Key: key}
	}
	return sq.And{sq.Eq{b.Schema.Key: key}, sq.Eq{b.Schema.SoftDelete: b.LiveValue()}}
}

// orderBy renders the ORDER BY terms, breaking ties by key.
func orderBy(spec storagemodels.PageSpec, key string) []string {
	dir := "ASC"
	if spec.Desc {
		dir = "DESC"
	}
	terms := []string{spec.OrderBy + " " + dir}
	if spec.OrderBy != key {
		terms = append(terms, key+" ASC")
	}
	return terms
}
