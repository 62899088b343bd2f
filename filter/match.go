/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/recordstore/internal/codec"
)

// Match evaluates p against a column map in process.
// A missing or nil column value satisfies no comparison.
func (p Predicate) Match(row map[string]any) bool {
	for _, c := range p.Conditions {
		if !matchCondition(c, codec.Indirect(row[c.Column])) {
			return false
		}
	}
	if p.HasKeyword() {
		for _, col := range p.KeywordColumns {
			if s, ok := stringValue(codec.Indirect(row[col])); ok && containsFold(s, p.Keyword) {
				return true
			}
		}
		return false
	}
	return true
}

func matchCondition(c Condition, have any) bool {
	if have == nil {
		return false
	}
	if c.Op == OpContains {
		s, ok := stringValue(have)
		needle, _ := c.Value.(string)
		return ok && containsFold(s, needle)
	}

	want := codec.Indirect(c.Value)
	cmp, ok := Compare(have, want)
	if !ok {
		if c.Op == OpNe {
			return !reflect.DeepEqual(have, want)
		}
		return c.Op == OpEq && reflect.DeepEqual(have, want)
	}
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Compare orders two column values. Numbers compare numerically across
// types, numeric strings compare with numbers, times chronologically.
// ok is false when the values are not comparable.
func Compare(a, b any) (cmp int, ok bool) {
	if c, iok := compareInteger(a, b); iok {
		return c, true
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return compareFloat(af, bf), true
		}
		if bs, bok := stringValue(b); bok {
			if bf, err := strconv.ParseFloat(bs, 64); err == nil {
				return compareFloat(af, bf), true
			}
		}
		return 0, false
	}
	if as, aok := stringValue(a); aok {
		if bs, bok := stringValue(b); bok {
			return strings.Compare(as, bs), true
		}
		if bf, bok := toFloat(b); bok {
			if af, err := strconv.ParseFloat(as, 64); err == nil {
				return compareFloat(af, bf), true
			}
		}
		return 0, false
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Compare(bt), true
		}
		return 0, false
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case ab == bb:
				return 0, true
			case !ab:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

// compareInteger orders two integer values without going through float64,
// which loses precision above 2^53.
func compareInteger(a, b any) (int, bool) {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	aSigned, aInt := integerKind(av)
	bSigned, bInt := integerKind(bv)
	if !aInt || !bInt {
		return 0, false
	}
	switch {
	case aSigned && bSigned:
		return cmpOrdered(av.Int(), bv.Int()), true
	case !aSigned && !bSigned:
		return cmpOrdered(av.Uint(), bv.Uint()), true
	case aSigned:
		if av.Int() < 0 {
			return -1, true
		}
		return cmpOrdered(uint64(av.Int()), bv.Uint()), true
	default:
		if bv.Int() < 0 {
			return 1, true
		}
		return cmpOrdered(av.Uint(), uint64(bv.Int())), true
	}
}

func integerKind(v reflect.Value) (signed, ok bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return false, true
	}
	return false, false
}

func cmpOrdered[N int64 | uint64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
