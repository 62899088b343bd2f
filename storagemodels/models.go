/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"math"
	"strings"
	"time"
)

// KeyKind describes how a record's key is typed and generated.
type KeyKind int

const (
	// KeySerial keys are positive int64 values generated by the backend in insertion order.
	KeySerial KeyKind = iota
	// KeyUUID keys are RFC 4122 UUIDs, generated when unset.
	KeyUUID
	// KeyString keys are free-form non-empty strings, generated as UUIDs when unset.
	KeyString
)

func (k KeyKind) String() string {
	switch k {
	case KeySerial:
		return "serial"
	case KeyUUID:
		return "uuid"
	case KeyString:
		return "string"
	default:
		return "unknown"
	}
}

// ParseKeyKind converts the textual form used in schema documents.
func ParseKeyKind(s string) (KeyKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "serial", "int", "integer":
		return KeySerial, true
	case "uuid":
		return KeyUUID, true
	case "string":
		return KeyString, true
	default:
		return 0, false
	}
}

// Schema is the per-entity configuration shared by every backend.
type Schema struct {
	// Name is the entity type name, also written as the EntityType attribute on DynamoDB items.
	Name string
	// Table is the relational table name, and the key prefix on DynamoDB.
	Table string
	// Key is the db column holding the record identity.
	Key string
	// KeyKind selects key parsing and generation.
	KeyKind KeyKind
	// Columns lists the persisted columns. Derived from db tags when empty.
	Columns []string
	// Unique lists columns, other than Key, that carry a uniqueness constraint.
	Unique []string
	// Fuzzy lists entity columns matched by substring when the entity itself is used as a filter.
	Fuzzy []string
	// Formats maps a column to a strfmt format name (email, uuid, date-time, ...).
	Formats map[string]string
	// JSONSchema is an optional JSON Schema document records must satisfy.
	JSONSchema string
	// SoftDelete names an integer or boolean column marking deleted records.
	// When set, deletes mark the record and reads skip marked records.
	SoftDelete string
}

// HasColumn reports whether col is a persisted column.
func (s Schema) HasColumn(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// DataColumns returns the persisted columns without the key column.
func (s Schema) DataColumns() []string {
	cols := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c != s.Key {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsFuzzy reports whether col is marked for substring matching.
func (s Schema) IsFuzzy(col string) bool {
	for _, c := range s.Fuzzy {
		if c == col {
			return true
		}
	}
	return false
}

// Stamper is implemented by entities that carry audit timestamps.
// Stores call StampCreated on insert and StampUpdated on insert and update.
type Stamper interface {
	StampCreated(now time.Time)
	StampUpdated(now time.Time)
}

const (
	// DefaultPageSize is used when a PageSpec carries no size.
	DefaultPageSize = 10
	// MaxPageSize bounds the size of a single page.
	MaxPageSize = 100
)

// PageSpec selects one page of a listing.
type PageSpec struct {
	// Page is 1-based.
	Page int
	// Size is the maximum number of records returned.
	Size int
	// OrderBy is a column name; empty means key order.
	OrderBy string
	// Desc reverses the order.
	Desc bool
}

// Normalize applies defaults and bounds. maxSize <= 0 means MaxPageSize.
func (p PageSpec) Normalize(maxSize int) PageSpec {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	// keep the offset representable
	if last := math.MaxInt/p.Size + 1; p.Page > last {
		p.Page = last
	}
	return p
}

// Offset returns the number of records preceding the page.
func (p PageSpec) Offset() int {
	if p.Page < 1 || p.Size <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Size
}

// Page is a bounded, ordered subset of matching records plus the total match count.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int64 `json:"pages"`
}

// NewPage assembles a Page and computes the page count.
func NewPage[T any](items []T, total int64, spec PageSpec) *Page[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if spec.Size > 0 {
		pages = (total + int64(spec.Size) - 1) / int64(spec.Size)
	}
	return &Page[T]{
		Items: items,
		Total: total,
		Page:  spec.Page,
		Size:  spec.Size,
		Pages: pages,
	}
}
