/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordstore"
	"github.com/suparena/recordstore/datastore/memory"
	"github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/registry"
	"github.com/suparena/recordstore/storagemodels"
)

type widget struct {
	ID    int64  `db:"id"`
	Name  string `db:"name" valid:"required"`
	Color string `db:"color"`
}

type gadget struct {
	ID    string `db:"id"`
	Label string `db:"label"`
}

type unregistered struct {
	ID int64 `db:"id"`
}

func init() {
	registry.MustRegister[widget](storagemodels.Schema{
		Name:  "Widget",
		Table: "widget",
		Key:   "id",
		Fuzzy: []string{"name"},
	})
	registry.MustRegister[gadget](storagemodels.Schema{
		Name:    "Gadget",
		Table:   "gadget",
		Key:     "id",
		KeyKind: storagemodels.KeyUUID,
	})
}

func newStorage(t *testing.T) (*recordstore.Storage, *memory.Store[widget]) {
	t.Helper()
	widgets, err := memory.New[widget]()
	require.NoError(t, err)
	gadgets, err := memory.New[gadget]()
	require.NoError(t, err)

	s := recordstore.NewStorage()
	require.NoError(t, recordstore.Register[widget](s, widgets))
	require.NoError(t, recordstore.Register[gadget](s, gadgets))
	return s, widgets
}

func TestStorage_RegisterAndGet(t *testing.T) {
	s, widgets := newStorage(t)

	got, err := recordstore.Get[widget](s)
	require.NoError(t, err)
	assert.Same(t, widgets, got)

	assert.Equal(t, []string{"Gadget", "Widget"}, s.Names())
}

func TestStorage_RegisterTwice(t *testing.T) {
	s, widgets := newStorage(t)

	err := recordstore.Register[widget](s, widgets)
	assert.Error(t, err)
}

func TestStorage_RegisterWithoutSchema(t *testing.T) {
	store, err := memory.New[unregistered](memory.WithSchema(storagemodels.Schema{
		Name:  "Unregistered",
		Table: "unregistered",
		Key:   "id",
	}))
	require.NoError(t, err)

	err = recordstore.Register[unregistered](recordstore.NewStorage(), store)
	assert.ErrorIs(t, err, errors.ErrNoSchema)
}

func TestStorage_GetMissing(t *testing.T) {
	_, err := recordstore.Get[widget](recordstore.NewStorage())
	assert.True(t, errors.IsNotFound(err))
}

func TestStorage_Lookup(t *testing.T) {
	ctx := context.Background()
	s, widgets := newStorage(t)

	saved, err := widgets.Insert(ctx, widget{Name: "Sprocket", Color: "red"})
	require.NoError(t, err)

	h, err := s.Lookup("Widget")
	require.NoError(t, err)
	assert.Equal(t, "Widget", h.Name())
	assert.Equal(t, "widget", h.Schema().Table)

	found, err := h.FindByID(ctx, "1")
	require.NoError(t, err)
	require.IsType(t, &widget{}, found)
	assert.Equal(t, *saved, *found.(*widget))

	missing, err := h.FindByID(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = h.FindByID(ctx, "abc")
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = s.Lookup("Gizmo")
	assert.True(t, errors.IsNotFound(err))
}

func TestStorage_HandleList(t *testing.T) {
	ctx := context.Background()
	s, widgets := newStorage(t)

	for _, name := range []string{"Sprocket", "Spring", "Bolt"} {
		_, err := widgets.Insert(ctx, widget{Name: name})
		require.NoError(t, err)
	}

	h, err := s.Lookup("Widget")
	require.NoError(t, err)

	page, err := h.List(ctx, filter.Predicate{}.And(filter.Like("name", "spr")), storagemodels.PageSpec{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, int64(2), page.Pages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Sprocket", page.Items[0].(widget).Name)

	_, err = h.List(ctx, filter.Predicate{}.And(filter.Eq("weight", 3)), storagemodels.PageSpec{})
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestStorage_HandleDelete(t *testing.T) {
	ctx := context.Background()
	s, widgets := newStorage(t)

	_, err := widgets.Insert(ctx, widget{Name: "Sprocket"})
	require.NoError(t, err)

	h, err := s.Lookup("Widget")
	require.NoError(t, err)

	removed, err := h.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = h.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 0, widgets.Count())
}

func TestStorage_Remove(t *testing.T) {
	s, _ := newStorage(t)

	require.NoError(t, s.Remove("Gadget"))
	assert.Equal(t, []string{"Widget"}, s.Names())

	_, err := recordstore.Get[gadget](s)
	assert.True(t, errors.IsNotFound(err))

	assert.True(t, errors.IsNotFound(s.Remove("Gadget")))
}

func TestGetVersionInfo(t *testing.T) {
	info := recordstore.GetVersionInfo()
	assert.Equal(t, recordstore.Version, info.Version)
	assert.NotEmpty(t, info.GitCommit)
}
