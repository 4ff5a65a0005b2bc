package model

import (
	"slices"
	"strings"
)

// Key is the identity of an entity: one column, or an ordered list of
// columns for a combined key.
type Key struct {
	columns  []string
	combined bool
}

// SingleKey returns a one-column key.
func SingleKey(column string) Key {
	return Key{columns: []string{column}}
}

// CombinedKeys returns a combined key. The column order is the order
// conditions are built in on delete and lookup.
func CombinedKeys(columns ...string) Key {
	return Key{columns: slices.Clone(columns), combined: true}
}

// Columns returns the key columns.
func (k Key) Columns() []string { return slices.Clone(k.columns) }

// First returns the first key column, or "" for a zero key.
func (k Key) First() string {
	if len(k.columns) == 0 {
		return ""
	}
	return k.columns[0]
}

// IsCombined reports whether the key was declared as a list.
func (k Key) IsCombined() bool { return k.combined }

// Has reports whether column is part of the key.
func (k Key) Has(column string) bool { return slices.Contains(k.columns, column) }

// String returns the key columns joined with commas.
func (k Key) String() string { return strings.Join(k.columns, ",") }
