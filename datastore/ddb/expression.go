/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordstore/filter"
)

// expression is a condition, filter or update expression with its
// placeholder maps.
type expression struct {
	text   string
	names  map[string]string
	values map[string]types.AttributeValue
}

func newExpression() expression {
	return expression{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
}

var comparators = map[filter.Op]string{
	filter.OpEq: "=",
	filter.OpNe: "<>",
	filter.OpGt: ">",
	filter.OpGe: ">=",
	filter.OpLt: "<",
	filter.OpLe: "<=",
}

// buildFilter translates pred into a filter expression. Contains terms test
// the lowercase shadow attribute so matching is case-insensitive. The text
// is empty for the empty predicate.
func buildFilter(pred filter.Predicate) (expression, error) {
	e := newExpression()
	var terms []string

	for i, c := range pred.Conditions {
		name := fmt.Sprintf("#c%d", i)
		value := fmt.Sprintf(":c%d", i)

		if c.Op == filter.OpContains {
			s, _ := c.Value.(string)
			e.names[name] = shadowName(c.Column)
			e.values[value] = &types.AttributeValueMemberS{Value: strings.ToLower(s)}
			terms = append(terms, fmt.Sprintf("contains(%s, %s)", name, value))
			continue
		}

		cmp, ok := comparators[c.Op]
		if !ok {
			return e, fmt.Errorf("ddb: unsupported operator %q", c.Op)
		}
		av, err := attributevalue.Marshal(c.Value)
		if err != nil {
			return e, fmt.Errorf("ddb: marshal value for %s: %w", c.Column, err)
		}
		e.names[name] = c.Column
		e.values[value] = av
		terms = append(terms, fmt.Sprintf("%s %s %s", name, cmp, value))
	}

	if pred.HasKeyword() {
		e.values[":kw"] = &types.AttributeValueMemberS{Value: strings.ToLower(pred.Keyword)}
		ors := make([]string, 0, len(pred.KeywordColumns))
		for i, col := range pred.KeywordColumns {
			name := fmt.Sprintf("#k%d", i)
			e.names[name] = shadowName(col)
			ors = append(ors, fmt.Sprintf("contains(%s, :kw)", name))
		}
		terms = append(terms, "("+strings.Join(ors, " OR ")+")")
	}

	e.text = strings.Join(terms, " AND ")
	return e, nil
}

// withEntityType prepends the EntityType equality to a filter expression.
func withEntityType(e expression, entityType string) expression {
	e.names["#et"] = attrEntityType
	e.values[":et"] = &types.AttributeValueMemberS{Value: entityType}
	if e.text == "" {
		e.text = "#et = :et"
	} else {
		e.text = "#et = :et AND " + e.text
	}
	return e
}

// buildUpdateExpression transforms a map of column->value into a SET
// expression. String values also set their lowercase shadow; nil values
// null it.
func buildUpdateExpression(updates map[string]any) (expression, error) {
	e := newExpression()
	if len(updates) == 0 {
		return e, fmt.Errorf("no updates provided")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(updates)*2)
	for i, field := range fields {
		placeholderName := fmt.Sprintf("#f%d", i)
		placeholderValue := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(updates[field])
		if err != nil {
			return e, fmt.Errorf("marshal update value for field '%s': %w", field, err)
		}
		e.names[placeholderName] = field
		e.values[placeholderValue] = av
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))

		var shadow types.AttributeValue
		if s, ok := stringOf(updates[field]); ok {
			shadow = &types.AttributeValueMemberS{Value: strings.ToLower(s)}
		} else if updates[field] == nil {
			shadow = &types.AttributeValueMemberNULL{Value: true}
		}
		if shadow != nil {
			shadowPlaceholder := fmt.Sprintf("#s%d", i)
			shadowValue := fmt.Sprintf(":s%d", i)
			e.names[shadowPlaceholder] = shadowName(field)
			e.values[shadowValue] = shadow
			setClauses = append(setClauses, fmt.Sprintf("%s = %s", shadowPlaceholder, shadowValue))
		}
	}

	e.text = "SET " + strings.Join(setClauses, ", ")
	return e, nil
}
