/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrValidation is returned when a required field is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an insert or update violates a uniqueness constraint
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned when an operation references a record that does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidArgument is returned for malformed keys and filter input
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoSchema is returned when no schema is registered for an entity type
	ErrNoSchema = errors.New("no schema registered for type")
)

// ValidationError represents a missing or malformed required field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError represents a uniqueness violation
type ConflictError struct {
	Type   string
	Column string
	Value  string
}

func (e *ConflictError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s with %s %q already exists", e.Type, e.Column, e.Value)
	}
	return fmt.Sprintf("%s %q already exists", e.Type, e.Value)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError represents a reference to a record that does not exist
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidArgumentError represents a malformed key, column or filter value
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// Helper functions for creating errors

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConflictError creates a new ConflictError for the given column.
// An empty column means the key itself collided.
func NewConflictError(entityType, column, value string) error {
	return &ConflictError{Type: entityType, Column: column, Value: value}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(argument, message string) error {
	return &InvalidArgumentError{Argument: argument, Message: message}
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
