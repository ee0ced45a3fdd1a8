// Package console serves the query console page and its SSE operations.
package console

import (
	"context"

	"github.com/leapstack-labs/queryconsole/internal/console"
)

// Signals are the client-side values datastar sends with every request.
type Signals struct {
	Query string `json:"query"`
}

// Service is the in-process backend the panels run against.
type Service interface {
	console.LocalService
	// AllowQueries is the initial permission of new sessions.
	AllowQueries(ctx context.Context) bool
}
