/*
Package registry manages schema registration for RecordStore.

The registry system enables:
  - One schema per Go type, shared by every backend
  - Name-based resolution of entity types (CLI and DynamoDB EntityType)
  - Validation of key, unique, fuzzy and format columns at registration

Schema Registry:
Associates Go types with their schema. Columns are derived from db tags
when the schema does not list them:

	registry.MustRegister[Project](storagemodels.Schema{
	    Name:    "Project",
	    Table:   "project",
	    Key:     "id",
	    KeyKind: storagemodels.KeySerial,
	    Unique:  []string{"code"},
	    Fuzzy:   []string{"name"},
	})

	schema, err := registry.SchemaFor[Project]()

Type Registry:
Maps entity names back to their schema and Go type:

	schema, typ, ok := registry.Lookup("Project")

The registry is thread-safe and should be populated during initialization,
typically in init() functions or through generated code.
*/
package registry
