// Package state persists console properties and the query log in SQLite.
//
// Core types are defined in pkg/core. This package re-exports them via
// type aliases so callers of the store need a single import.
package state

import (
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

type (
	// Store is an alias for core.Store.
	Store = core.Store

	// Property is an alias for core.Property.
	Property = core.Property

	// QueryLogEntry is an alias for core.QueryLogEntry.
	QueryLogEntry = core.QueryLogEntry
)

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
