// Package registry provides a generic concurrent index of values by key.
//
// Registry is built for the access pattern of an event dispatcher: reads on
// every publish, writes only when a key is seen for the first time. Lookups
// never take a lock; creating a new key takes a short creation lock so that
// the factory passed to GetOrCreate runs at most once per key.
//
// # Basic Usage
//
//	tables := registry.New[reflect.Type, *Table]()
//
//	// First call creates the table, later calls return the same one.
//	t := tables.GetOrCreate(typ, func() *Table { return newTable() })
//
//	if t, ok := tables.Get(typ); ok {
//	    // use t
//	}
//
// # Monotonic
//
// Entries are never removed. Keys returns the keys in no particular order;
// keys added while it runs may or may not be included.
package registry
