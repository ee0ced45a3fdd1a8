package console

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/leapstack-labs/queryconsole/internal/console"
	"github.com/patrickmn/go-cache"
)

// DefaultPanelTTL is how long an idle browser session keeps its panel.
const DefaultPanelTTL = 30 * time.Minute

// PanelStore keeps one panel per browser session. Idle panels expire, and
// the next request of that session mounts a fresh one.
type PanelStore struct {
	service  Service
	cache    *cache.Cache
	pageSize int
	logger   *slog.Logger
}

// NewPanelStore creates a store. ttl <= 0 uses DefaultPanelTTL.
func NewPanelStore(service Service, ttl time.Duration, pageSize int, logger *slog.Logger) *PanelStore {
	if ttl <= 0 {
		ttl = DefaultPanelTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PanelStore{
		service:  service,
		cache:    cache.New(ttl, ttl*2),
		pageSize: pageSize,
		logger:   logger,
	}
}

// Get returns the session's panel, mounting a new one on first use.
// The permission of a new panel comes from the service at that moment.
func (s *PanelStore) Get(ctx context.Context, sessionID string) *console.Panel {
	if v, ok := s.cache.Get(sessionID); ok {
		s.cache.SetDefault(sessionID, v)
		return v.(*console.Panel)
	}

	meta := map[string]string{
		console.MetadataAllowQueries: strconv.FormatBool(s.service.AllowQueries(ctx)),
	}
	p := console.NewPanel(console.Local(s.service), console.SessionFromMetadata(meta), console.Options{
		PageSize: s.pageSize,
		Logger:   s.logger.With(slog.String("session", sessionID)),
	})
	if err := s.cache.Add(sessionID, p, cache.DefaultExpiration); err != nil {
		// lost a race with a concurrent first request of the same session
		if v, ok := s.cache.Get(sessionID); ok {
			return v.(*console.Panel)
		}
	}

	if err := p.Mount(ctx); err != nil {
		s.logger.Warn("panel mount failed", slog.String("session", sessionID), slog.String("error", err.Error()))
	}
	return p
}

// Len returns the number of live panels.
func (s *PanelStore) Len() int {
	return s.cache.ItemCount()
}
