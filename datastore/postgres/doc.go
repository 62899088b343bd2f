/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package postgres implements datastore.DataStore[T] on a PostgreSQL table.

Statements are built with squirrel and scanned with scany, so the entity's
db tags must match the table's column names. Serial keys are generated by
the database (BIGSERIAL / identity); uuid and string keys are generated by
the store when unset.

	pool, err := postgres.NewPool(ctx, cfg.Database)
	store, err := postgres.New[models.Project](pool)

Driver errors are translated to the recordstore error types:

	23505 unique_violation      -> ConflictError
	23503 foreign_key_violation -> NotFoundError
	23502 not_null_violation    -> ValidationError
	23514 check_violation       -> ValidationError
	22P02 invalid_text          -> InvalidArgumentError

Contains conditions become ILIKE '%v%' with LIKE wildcards in v escaped.
A transaction placed in the context with WithTx is used instead of the
store's pool.
*/
package postgres
