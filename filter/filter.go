/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"fmt"
	"sort"
	"strings"

	rserrors "github.com/suparena/recordstore/errors"
)

// Mode selects how a non-empty field value is matched.
type Mode int

const (
	// Exact matches the column value by equality. It is the default.
	Exact Mode = iota
	// Contains matches a case-insensitive substring of a string column.
	Contains
)

func (m Mode) String() string {
	if m == Contains {
		return "contains"
	}
	return "exact"
}

// Modes is a match-mode table keyed by column. Columns not listed are Exact.
type Modes map[string]Mode

// Moded is implemented by request DTOs that declare a match-mode table.
type Moded interface {
	FilterModes() Modes
}

// ContainsColumns returns the columns marked Contains, sorted.
func (m Modes) ContainsColumns() []string {
	var cols []string
	for c, mode := range m {
		if mode == Contains {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

// Op is a comparison operator.
type Op string

const (
	// OpEq matches values equal to the operand. Numbers compare across types.
	OpEq Op = "eq"
	// OpNe matches present values that differ from the operand. Null never matches.
	OpNe Op = "ne"
	// OpGt matches values ordered after the operand.
	OpGt Op = "gt"
	// OpGe matches values ordered after or equal to the operand.
	OpGe Op = "ge"
	// OpLt matches values ordered before the operand.
	OpLt Op = "lt"
	// OpLe matches values ordered before or equal to the operand.
	OpLe Op = "le"
	// OpContains matches string values holding the operand as a case-insensitive substring.
	OpContains Op = "contains"
)

// Condition is one column comparison.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// Eq returns an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

// Like returns a case-insensitive substring condition.
func Like(column, value string) Condition {
	return Condition{Column: column, Op: OpContains, Value: value}
}

// Predicate is a conjunction of conditions, optionally AND-ed with one
// keyword term that matches when any of its columns contains the keyword.
// The zero value matches every record.
type Predicate struct {
	Conditions     []Condition
	Keyword        string
	KeywordColumns []string
}

// And returns a copy of p with conds appended.
func (p Predicate) And(conds ...Condition) Predicate {
	out := p
	out.Conditions = append(append([]Condition(nil), p.Conditions...), conds...)
	return out
}

// WithKeyword returns a copy of p carrying a keyword term over columns.
// An empty keyword or column list clears the term.
func (p Predicate) WithKeyword(keyword string, columns []string) Predicate {
	out := p
	if keyword == "" || len(columns) == 0 {
		out.Keyword, out.KeywordColumns = "", nil
		return out
	}
	out.Keyword = keyword
	out.KeywordColumns = append([]string(nil), columns...)
	return out
}

// IsEmpty reports whether p matches every record.
func (p Predicate) IsEmpty() bool {
	return len(p.Conditions) == 0 && !p.HasKeyword()
}

// HasKeyword reports whether p carries a keyword term.
func (p Predicate) HasKeyword() bool {
	return p.Keyword != "" && len(p.KeywordColumns) > 0
}

// Columns returns every column p references, in first-use order.
func (p Predicate) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range p.Conditions {
		add(c.Column)
	}
	if p.HasKeyword() {
		for _, c := range p.KeywordColumns {
			add(c)
		}
	}
	return cols
}

// Validate checks every referenced column with known and every operator.
func (p Predicate) Validate(known func(column string) bool) error {
	for _, c := range p.Conditions {
		switch c.Op {
		case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		case OpContains:
			if _, ok := c.Value.(string); !ok {
				return rserrors.NewInvalidArgumentError(c.Column, "contains requires a string value")
			}
		default:
			return rserrors.NewInvalidArgumentError(c.Column, fmt.Sprintf("unknown operator %q", c.Op))
		}
	}
	for _, col := range p.Columns() {
		if !known(col) {
			return rserrors.NewInvalidArgumentError(col, "unknown column")
		}
	}
	return nil
}

func (p Predicate) String() string {
	parts := make([]string, 0, len(p.Conditions)+1)
	for _, c := range p.Conditions {
		parts = append(parts, c.String())
	}
	if p.HasKeyword() {
		parts = append(parts, fmt.Sprintf("any(%s) contains %s", strings.Join(p.KeywordColumns, ","), p.Keyword))
	}
	if len(parts) == 0 {
		return "true"
	}
	return strings.Join(parts, " AND ")
}
