/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Reserved attribute names of the single-table layout.
const (
	attrPK         = "PK"
	attrSK         = "SK"
	attrEntityType = "EntityType"
	attrSeq        = "seq"

	// shadowSuffix marks the lowercase copy of a string column used by
	// case-insensitive contains() filters.
	shadowSuffix = "__lc"
)

// recordKey is the PK/SK value of the record with key id.
func recordKey(table, id string) string {
	return table + "#" + id
}

// guardKey is the PK/SK value of the item reserving value for a unique column.
func guardKey(table, column string, value any) string {
	return "UNIQUE#" + table + "#" + column + "#" + fmt.Sprint(value)
}

// counterKey is the PK/SK value of the serial key counter of table.
func counterKey(table string) string {
	return "SEQ#" + table
}

func shadowName(column string) string {
	return column + shadowSuffix
}

// keyOf builds the primary key map for a single-object item.
func keyOf(value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: value},
		attrSK: &types.AttributeValueMemberS{Value: value},
	}
}

// marshalRow converts a column map into an item, adding the key attributes,
// the EntityType and a lowercase shadow for every string column.
func marshalRow(table, entityType, id string, row map[string]any) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(row)*2+3)
	for col, v := range row {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal column %s: %w", col, err)
		}
		item[col] = av
		if s, ok := stringOf(v); ok {
			item[shadowName(col)] = &types.AttributeValueMemberS{Value: strings.ToLower(s)}
		}
	}
	for k, v := range keyOf(recordKey(table, id)) {
		item[k] = v
	}
	item[attrEntityType] = &types.AttributeValueMemberS{Value: entityType}
	return item, nil
}

// unmarshalRow extracts the schema columns of an item. Numbers decode as
// attributevalue.Number so int64 keys keep their precision.
func unmarshalRow(item map[string]types.AttributeValue, columns []string) (map[string]any, error) {
	data := make(map[string]types.AttributeValue, len(columns))
	for _, col := range columns {
		if av, ok := item[col]; ok {
			data[col] = av
		}
	}

	var row map[string]any
	err := attributevalue.UnmarshalMapWithOptions(data, &row, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return row, nil
}

// entityTypeOf reads the EntityType attribute, empty when missing.
func entityTypeOf(item map[string]types.AttributeValue) string {
	var entityType string
	if attr, ok := item[attrEntityType]; ok {
		_ = attributevalue.Unmarshal(attr, &entityType)
	}
	return entityType
}

// stringOf returns the value of string kinds, named string types included.
func stringOf(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}
