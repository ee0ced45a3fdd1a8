package core

import (
	"context"
	"database/sql"
	"strings"
)

// Adapter defines the interface that all datasource adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection.
	Close() error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// ListTables returns the user tables and views of the default schema.
	ListTables(ctx context.Context) ([]string, error)

	// QuoteIdent quotes an identifier for this dialect.
	QuoteIdent(name string) string

	// Location reports where the database lives.
	Location() Location
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Location describes where a datasource lives. Embedded databases
// (files or memory) are always local.
type Location struct {
	Embedded bool
	Host     string
}

// IsLocal reports whether the location is this machine or the allowed host.
func (l Location) IsLocal(allowedHost string) bool {
	if l.Embedded {
		return true
	}
	switch l.Host {
	case "localhost", "127.0.0.1", "::1", "[::1]":
		return true
	}
	return allowedHost != "" && strings.EqualFold(l.Host, allowedHost)
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
