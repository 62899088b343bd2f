/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package validation checks records against their schema before they are written.
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-openapi/strfmt"
	"github.com/xeipuuv/gojsonschema"

	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/internal/codec"
	"github.com/suparena/recordstore/storagemodels"
)

// Validator applies the three checks a schema can declare:
// govalidator struct tags (valid:"required"), strfmt column formats and an
// optional JSON Schema document.
type Validator struct {
	schema   storagemodels.Schema
	document *gojsonschema.Schema
}

// New compiles the validator for schema.
func New(schema storagemodels.Schema) (*Validator, error) {
	for col, format := range schema.Formats {
		if !strfmt.Default.ContainsName(format) {
			return nil, fmt.Errorf("validation: %s.%s: unknown format %q", schema.Name, col, format)
		}
	}

	v := &Validator{schema: schema}
	if schema.JSONSchema != "" {
		doc, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema.JSONSchema))
		if err != nil {
			return nil, fmt.Errorf("validation: %s: compile json schema: %w", schema.Name, err)
		}
		v.document = doc
	}
	return v, nil
}

// Validate checks entity and its column map. The first failure is returned as
// a *errors.ValidationError naming the offending column.
func (v *Validator) Validate(entity any, row map[string]any) error {
	if err := v.validateTags(entity); err != nil {
		return err
	}
	if err := v.validateFormats(row); err != nil {
		return err
	}
	return v.validateDocument(row)
}

func (v *Validator) validateTags(entity any) error {
	ok, err := govalidator.ValidateStruct(entity)
	if ok || err == nil {
		return nil
	}

	byField := govalidator.ErrorsByField(err)
	if len(byField) == 0 {
		return rserrors.NewValidationError("", err.Error())
	}
	// report in column order so the result is stable
	t := reflect.TypeOf(entity)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, f := range codec.Fields(t) {
		if msg, found := byField[f.Name]; found {
			return rserrors.NewValidationError(f.Column, msg)
		}
		// govalidator reports fields under their json name when one is set
		jsonName, _, _ := strings.Cut(t.FieldByIndex(f.Index).Tag.Get("json"), ",")
		if msg, found := byField[jsonName]; found && jsonName != "" {
			return rserrors.NewValidationError(f.Column, msg)
		}
	}
	for name, msg := range byField {
		return rserrors.NewValidationError(name, msg)
	}
	return nil
}

func (v *Validator) validateFormats(row map[string]any) error {
	for _, col := range v.schema.Columns {
		format, ok := v.schema.Formats[col]
		if !ok {
			continue
		}
		s, isString := row[col].(string)
		if !isString || s == "" {
			continue
		}
		if !strfmt.Default.Validates(format, s) {
			return rserrors.NewValidationError(col, fmt.Sprintf("%q is not a valid %s", s, format))
		}
	}
	return nil
}

func (v *Validator) validateDocument(row map[string]any) error {
	if v.document == nil {
		return nil
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("validation: encode %s: %w", v.schema.Name, err)
	}
	result, err := v.document.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation: %s: %w", v.schema.Name, err)
	}
	if result.Valid() {
		return nil
	}

	desc := result.Errors()[0]
	field := desc.Field()
	if field == "(root)" {
		if prop, ok := desc.Details()["property"].(string); ok {
			field = prop
		} else {
			field = ""
		}
	}
	return rserrors.NewValidationError(field, desc.Description())
}
