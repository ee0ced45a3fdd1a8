// Package postgres provides a PostgreSQL datasource adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/queryconsole/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/queryconsole/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
