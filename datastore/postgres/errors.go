/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	rserrors "github.com/suparena/recordstore/errors"
)

// detailKey extracts column and value from "Key (code)=(P001) already exists."
var detailKey = regexp.MustCompile(`Key \((.+?)\)=\((.*?)\)`)

// detailTable extracts the referenced table from a foreign key violation detail.
var detailTable = regexp.MustCompile(`table "(.+?)"`)

// mapError converts pgx/pgconn errors to recordstore errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		return rserrors.NewNotFoundError(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			column, value := "", id
			if m := detailKey.FindStringSubmatch(pgErr.Detail); m != nil {
				column, value = m[1], m[2]
			}
			return rserrors.NewConflictError(entity, column, value)
		case "23503": // foreign_key_violation
			table, key := entity, id
			if m := detailKey.FindStringSubmatch(pgErr.Detail); m != nil {
				key = m[2]
			}
			if m := detailTable.FindStringSubmatch(pgErr.Detail); m != nil {
				table = m[1]
			}
			return rserrors.NewNotFoundError(table, key)
		case "23502": // not_null_violation
			return rserrors.NewValidationError(pgErr.ColumnName, "must not be null")
		case "23514": // check_violation
			return rserrors.NewValidationError(pgErr.ConstraintName, pgErr.Message)
		case "22P02", "22003", "22007", "22008": // invalid text, out of range, bad datetime
			return rserrors.NewInvalidArgumentError(entity, pgErr.Message)
		}
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s %s: %w", entity, id, err)
}
