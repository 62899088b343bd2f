/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"reflect"

	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/storagemodels"
)

// Query holds the non-persisted listing parameters a request DTO can embed:
//
//	type ProjectQuery struct {
//	    filter.Query `db:"-"`
//	    Name string  `db:"name"`
//	}
type Query struct {
	Keyword string `json:"keyword,omitempty"`
	Where   string `json:"where,omitempty"`
	Order   string `json:"order,omitempty"`
	Page    int    `json:"page,omitempty"`
	Size    int    `json:"size,omitempty"`
}

// QueryParams exposes the embedded parameters.
func (q Query) QueryParams() Query { return q }

// Paramed is implemented by DTOs embedding Query.
type Paramed interface {
	QueryParams() Query
}

// FromRequest builds the predicate and page of a listing request.
// Field conditions come from FromDTO. When the DTO embeds Query, its
// where expression is AND-ed in, its keyword is matched against the
// DTO's string columns marked Contains, and its order and paging fill
// the returned PageSpec. Only a malformed where or order expression fails.
func FromRequest(dto any) (Predicate, storagemodels.PageSpec, error) {
	pred := FromDTO(dto)
	var page storagemodels.PageSpec

	pq, ok := dto.(Paramed)
	if !ok || isNil(dto) {
		return pred, page, nil
	}
	q := pq.QueryParams()

	if q.Where != "" {
		conds, err := ParseWhere(q.Where)
		if err != nil {
			return Predicate{}, page, err
		}
		pred = pred.And(conds...)
	}
	if q.Keyword != "" {
		pred = pred.WithKeyword(q.Keyword, keywordColumns(dto))
	}

	column, desc, err := ParseOrder(q.Order)
	if err != nil {
		return Predicate{}, page, err
	}
	page = storagemodels.PageSpec{Page: q.Page, Size: q.Size, OrderBy: column, Desc: desc}
	return pred, page, nil
}

// keywordColumns lists the string columns of dto marked Contains, in field order.
func keywordColumns(dto any) []string {
	m, ok := dto.(Moded)
	if !ok {
		return nil
	}
	modes := m.FilterModes()

	var cols []string
	for _, f := range codec.Fields(reflect.TypeOf(dto)) {
		t := f.Type
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if modes[f.Column] == Contains && t.Kind() == reflect.String {
			cols = append(cols, f.Column)
		}
	}
	return cols
}
