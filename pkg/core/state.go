package core

import "time"

// Store defines the interface for console state operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Property operations
	SetProperty(name, value string) error
	GetProperty(name string) (string, bool, error)
	ListProperties() ([]*Property, error)

	// Query log operations
	RecordQuery(entry *QueryLogEntry) error
	RecentQueries(limit int) ([]*QueryLogEntry, error)
}

// Property is a backend-held configuration property.
type Property struct {
	Name      string
	Value     string
	UpdatedAt time.Time
}

// QueryLogEntry records one executeQuery call.
type QueryLogEntry struct {
	ID              string
	PersistenceUnit string
	Query           string
	PageNumber      int
	PageSize        int
	Total           int64
	Error           string
	DurationMS      int64
	ExecutedAt      time.Time
}

// AllowQueriesProperty is the property that lets consoles submit free-form queries.
const AllowQueriesProperty = "console.allow_queries"
