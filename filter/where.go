/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	rserrors "github.com/suparena/recordstore/errors"
)

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// operators in match precedence; two-character forms come first
var whereOperators = []struct {
	token string
	op    Op
}{
	{"==", OpEq},
	{"!=", OpNe},
	{">=", OpGe},
	{"<=", OpLe},
	{">", OpGt},
	{"<", OpLt},
}

// ParseWhere parses a where expression such as "status==1&&budget>=1000".
// Terms are joined by && and compare a column with a literal using one of
// == != >= <= > <. Literals are typed as int64, float64, bool or string;
// quoting a literal with ' or " keeps it a string.
func ParseWhere(expr string) ([]Condition, error) {
	var conds []Condition
	for _, term := range strings.Split(expr, "&&") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		cond, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func parseTerm(term string) (Condition, error) {
	for _, o := range whereOperators {
		idx := strings.Index(term, o.token)
		if idx < 0 {
			continue
		}
		column := strings.TrimSpace(term[:idx])
		literal := strings.TrimSpace(term[idx+len(o.token):])
		if !columnPattern.MatchString(column) {
			return Condition{}, rserrors.NewInvalidArgumentError("where", fmt.Sprintf("bad column in %q", term))
		}
		if literal == "" {
			return Condition{}, rserrors.NewInvalidArgumentError("where", fmt.Sprintf("missing value in %q", term))
		}
		return Condition{Column: column, Op: o.op, Value: typeLiteral(literal)}, nil
	}
	return Condition{}, rserrors.NewInvalidArgumentError("where", fmt.Sprintf("no operator in %q", term))
}

// Literal types a bare value the way where expressions do.
func Literal(s string) any {
	return typeLiteral(strings.TrimSpace(s))
}

func typeLiteral(s string) any {
	if len(s) >= 2 {
		if q := s[0]; (q == '\'' || q == '"') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// ParseOrder parses "column", "column asc" or "column desc".
// An empty string yields an empty column, meaning key order.
func ParseOrder(order string) (column string, desc bool, err error) {
	fields := strings.Fields(order)
	switch len(fields) {
	case 0:
		return "", false, nil
	case 1, 2:
	default:
		return "", false, rserrors.NewInvalidArgumentError("order", fmt.Sprintf("cannot parse %q", order))
	}

	column = fields[0]
	if !columnPattern.MatchString(column) {
		return "", false, rserrors.NewInvalidArgumentError("order", fmt.Sprintf("bad column %q", column))
	}
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "asc":
		case "desc":
			desc = true
		default:
			return "", false, rserrors.NewInvalidArgumentError("order", fmt.Sprintf("direction must be asc or desc, got %q", fields[1]))
		}
	}
	return column, desc, nil
}
