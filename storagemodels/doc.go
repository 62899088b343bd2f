/*
Package storagemodels defines the data structures used throughout RecordStore.

Key Types:

Schema:
Per-entity configuration registered once and shared by every backend:

	schema := Schema{
	    Name:    "Project",
	    Table:   "project",
	    Key:     "id",
	    KeyKind: KeySerial,
	    Unique:  []string{"code"},
	    Fuzzy:   []string{"name"},
	}

PageSpec and Page:
Paging input and output for List:

	page, err := store.List(ctx, pred, PageSpec{Page: 2, Size: 20, OrderBy: "name"})
	fmt.Println(page.Total, page.Pages, len(page.Items))

StreamResult:
Results from streaming operations with metadata:

	type StreamResult[T any] struct {
	    Item  T              // The typed record
	    Raw   map[string]any // Column values
	    Error error          // Item-specific error, if any
	    Meta  StreamMeta     // Metadata about this item
	}

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
