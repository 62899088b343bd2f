/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/suparena/recordstore/filter"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere. Wildcards in
// s are escaped with the default LIKE escape character.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// compile translates a predicate into a squirrel condition.
// ok is false for the empty predicate.
func compile(p filter.Predicate) (cond sq.Sqlizer, ok bool, err error) {
	and := sq.And{}
	for _, c := range p.Conditions {
		part, err := compileCondition(c)
		if err != nil {
			return nil, false, err
		}
		and = append(and, part)
	}

	if p.HasKeyword() {
		or := sq.Or{}
		pattern := containsPattern(p.Keyword)
		for _, col := range p.KeywordColumns {
			or = append(or, sq.ILike{col: pattern})
		}
		and = append(and, or)
	}

	if len(and) == 0 {
		return nil, false, nil
	}
	return and, true, nil
}

func compileCondition(c filter.Condition) (sq.Sqlizer, error) {
	switch c.Op {
	case filter.OpEq:
		return sq.Eq{c.Column: c.Value}, nil
	case filter.OpNe:
		return sq.NotEq{c.Column: c.Value}, nil
	case filter.OpGt:
		return sq.Gt{c.Column: c.Value}, nil
	case filter.OpGe:
		return sq.GtOrEq{c.Column: c.Value}, nil
	case filter.OpLt:
		return sq.Lt{c.Column: c.Value}, nil
	case filter.OpLe:
		return sq.LtOrEq{c.Column: c.Value}, nil
	case filter.OpContains:
		s, _ := c.Value.(string)
		return sq.ILike{c.Column: containsPattern(s)}, nil
	default:
		return nil, fmt.Errorf("postgres: unsupported operator %q", c.Op)
	}
}
