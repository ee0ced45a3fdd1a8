package console

import "sync/atomic"

// MetadataAllowQueries is the route metadata key carrying the initial permission.
const MetadataAllowQueries = "allowQueries"

// Session is the configuration of one console session. The permission to
// run free-form queries is read once when the session starts and can only
// be switched on afterwards.
type Session struct {
	allowQueries atomic.Bool
}

// NewSession creates a session with the given initial permission.
func NewSession(allowQueries bool) *Session {
	s := &Session{}
	s.allowQueries.Store(allowQueries)
	return s
}

// SessionFromMetadata reads the permission from route metadata. Only the
// exact string "true" enables queries.
func SessionFromMetadata(meta map[string]string) *Session {
	return NewSession(meta[MetadataAllowQueries] == "true")
}

// AllowQueries reports whether free-form queries may be submitted.
func (s *Session) AllowQueries() bool {
	return s.allowQueries.Load()
}

func (s *Session) enable() {
	s.allowQueries.Store(true)
}
