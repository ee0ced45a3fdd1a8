// Package adapter provides the datasource adapter contract and the shared
// database/sql plumbing used by concrete adapters.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with the registry from their init() functions.
package adapter

import (
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

type (
	// Adapter is the contract all datasource adapters implement.
	Adapter = core.Adapter

	// Config is the connection configuration handed to Connect.
	Config = core.AdapterConfig

	// Rows wraps sql.Rows.
	Rows = core.Rows
)
