/*
Package recordstore provides a generic record store for Go applications:
one type-safe CRUD and query abstraction over PostgreSQL, DynamoDB or
process memory, with per-DTO fuzzy matching rules for list filters.

The library follows a design-time → build-time → runtime workflow:
  - Design-time: describe entities in an OpenAPI document with x-recordstore
    and x-fuzzy annotations
  - Build-time: cmd/schemagen generates schema registrations and filter modes
  - Runtime: bind a datastore.DataStore[T] per entity and query it

Key Features:
  - Type-safe operations using Go generics
  - Interchangeable backends (memory, PostgreSQL, DynamoDB)
  - Exact or contains matching declared once per DTO field
  - Keyword search, where expressions and ordering for list pages
  - Enhanced streaming with retry logic and progress tracking
  - Semantic error types for better error handling

Basic Usage:

	store, _ := memory.New[models.Project]()

	saved, err := store.Insert(ctx, models.Project{Name: "Alpha", Code: "P001"})

	pred, page, err := filter.FromRequest(models.ProjectQuery{Name: "alp"})
	result, err := store.List(ctx, pred, page)

Storage collects the stores of an application and exposes them by entity
name for callers that choose the entity at runtime:

	storage := recordstore.NewStorage()
	recordstore.Register[models.Project](storage, store)

	h, _ := storage.Lookup("Project")
	record, _ := h.FindByID(ctx, "1")
*/
package recordstore
