/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"context"
	"reflect"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

// Handle is a DataStore with its entity type erased, for callers that pick
// the entity by name at runtime such as the command line tool.
type Handle interface {
	Name() string
	Schema() storagemodels.Schema
	Type() reflect.Type
	FindByID(ctx context.Context, id string) (any, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[any], error)
}

type handle[T any] struct {
	name   string
	schema storagemodels.Schema
	ds     datastore.DataStore[T]
}

func (h *handle[T]) Name() string                 { return h.name }
func (h *handle[T]) Schema() storagemodels.Schema { return h.schema }
func (h *handle[T]) Type() reflect.Type           { return reflect.TypeOf((*T)(nil)).Elem() }

// FindByID returns a *T, or nil when the record is absent.
func (h *handle[T]) FindByID(ctx context.Context, id string) (any, error) {
	found, err := h.ds.FindByID(ctx, id)
	if err != nil || found == nil {
		return nil, err
	}
	return found, nil
}

func (h *handle[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	return h.ds.DeleteByID(ctx, id)
}

func (h *handle[T]) List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[any], error) {
	typed, err := h.ds.List(ctx, pred, page)
	if err != nil {
		return nil, err
	}
	items := make([]any, len(typed.Items))
	for i, item := range typed.Items {
		items[i] = item
	}
	return &storagemodels.Page[any]{
		Items: items,
		Total: typed.Total,
		Page:  typed.Page,
		Size:  typed.Size,
		Pages: typed.Pages,
	}, nil
}
