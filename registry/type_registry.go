package registry

import (
	"reflect"
	"sort"

	"github.com/suparena/recordstore/storagemodels"
)

// nameRegistry holds the mapping from an entity name (like "Project") to its Go type.
// It is guarded by mu and filled by Register.
var nameRegistry = make(map[string]reflect.Type)

// Lookup returns the schema and Go type registered under an entity name.
func Lookup(name string) (storagemodels.Schema, reflect.Type, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := nameRegistry[name]
	if !ok {
		return storagemodels.Schema{}, nil, false
	}
	return schemaRegistry[t], t, true
}

// Names returns the registered entity names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(nameRegistry))
	for n := range nameRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
