/*
Package datastore defines the core interfaces for RecordStore's data persistence layer.

The main interface is DataStore[T], which provides generic CRUD and listing for any entity type T:

	type DataStore[T any] interface {
	    Insert(ctx context.Context, entity T) (*T, error)
	    FindByID(ctx context.Context, id string) (*T, error)
	    Update(ctx context.Context, entity T) (*T, error)
	    UpdateFields(ctx context.Context, id string, fields map[string]any) (*T, error)
	    DeleteByID(ctx context.Context, id string) (bool, error)
	    List(ctx context.Context, pred filter.Predicate, page storagemodels.PageSpec) (*storagemodels.Page[T], error)
	    Stream(ctx context.Context, pred filter.Predicate, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
	}

FindByID returns nil and no error when the record does not exist. DeleteByID
reports whether a record was removed and is safe to repeat. Failures are the
typed errors of the errors package: ValidationError, ConflictError,
NotFoundError and InvalidArgumentError.

Implementations:
  - memory: in-process store guarded by a mutex
  - postgres: PostgreSQL through a pgx pool, squirrel and scany
  - ddb: DynamoDB single-table implementation

Binding[T] holds what every implementation shares: the schema bound to T,
key parsing and generation, validation, paging defaults and timestamps.
*/
package datastore
