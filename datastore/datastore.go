/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

type DataStore[T any] interface {
	Insert(ctx context.Context, entity T) (*T, error)

	FindByID(ctx context.Context, id string) (*T, error)

	Update(ctx context.Context, entity T) (*T, error)

	UpdateFields(ctx context.Context, id string, fields map[string]any) (*T, error)

	DeleteByID(ctx context.Context, id string) (bool, error)

	List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[T], error)

	Stream(ctx context.Context, pred filter.Predicate, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
}
