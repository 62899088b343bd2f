/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageSpecNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageSpec
		max  int
		want PageSpec
	}{
		{name: "defaults", in: PageSpec{}, want: PageSpec{Page: 1, Size: DefaultPageSize}},
		{name: "size capped", in: PageSpec{Page: 2, Size: 500}, want: PageSpec{Page: 2, Size: MaxPageSize}},
		{name: "configured max", in: PageSpec{Size: 50}, max: 20, want: PageSpec{Page: 1, Size: 20}},
		{name: "huge page clamped", in: PageSpec{Page: 3<<59 + 1, Size: 8}, want: PageSpec{Page: math.MaxInt/8 + 1, Size: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(tt.max))
		})
	}
}

func TestPageSpecOffset(t *testing.T) {
	assert.Equal(t, 0, PageSpec{}.Offset())
	assert.Equal(t, 20, PageSpec{Page: 3, Size: 10}.Offset())
	assert.Equal(t, math.MaxInt, PageSpec{Page: 3<<59 + 1, Size: 8}.Offset())

	clamped := PageSpec{Page: math.MaxInt, Size: 8}.Normalize(0)
	assert.GreaterOrEqual(t, clamped.Offset(), 0)
}

func TestNewPage(t *testing.T) {
	page := NewPage[int](nil, 21, PageSpec{Page: 3, Size: 10})
	assert.Equal(t, []int{}, page.Items)
	assert.Equal(t, int64(3), page.Pages)
	assert.Equal(t, 3, page.Page)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	_, ok = ActorFrom(WithActor(context.Background(), ""))
	assert.False(t, ok, "an empty actor is no actor")

	actor, ok := ActorFrom(WithActor(context.Background(), "alice"))
	assert.True(t, ok)
	assert.Equal(t, "alice", actor)
}
