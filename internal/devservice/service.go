// Package devservice is the backend of the query console: it describes the
// persistence units and runs paged, read-only queries against them.
package devservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/queryconsole/internal/hql"
	"github.com/leapstack-labs/queryconsole/internal/metrics"
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// User-facing error messages of ExecuteQuery.
const (
	MsgDevModeOnly      = "This method is only allowed in dev mode"
	MsgInvalidQuery     = "The provided query was not valid"
	MsgInvalidPage      = "Invalid page request"
	MsgNoSuchUnit       = "No such persistence unit: "
	MsgNonAllowedDB     = "The persistence unit datasource points to a non-allowed datasource (by default, only local databases are allowed)."
	MsgCatalogNotLoaded = "persistence units are not loaded"
)

const maxPropertyNameBytes = 128

// ErrCatalogNotLoaded is returned by GetInfo before the first successful catalog build.
var ErrCatalogNotLoaded = errors.New(MsgCatalogNotLoaded)

// Config holds the service settings.
type Config struct {
	// DevMode gates query execution entirely.
	DevMode bool
	// AllowQueries is the initial value of the allow property.
	AllowQueries bool
	// AllowedHost is a non-local database host queries may run against.
	AllowedHost string
	// Store persists properties and the query log. Optional.
	Store core.Store
	// Metrics records executions. Optional.
	Metrics *metrics.Metrics
	// Logger for service events. Nil uses a discard logger.
	Logger *slog.Logger
}

// Service implements the console backend.
type Service struct {
	mu       sync.RWMutex
	catalog  *Catalog
	retiring sync.WaitGroup

	cfg    Config
	logger *slog.Logger

	propsMu sync.Mutex
	props   map[string]string
}

// New creates a service over the given catalog. The catalog may be nil
// until the first Reload.
func New(cfg Config, catalog *Catalog) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,
		props:   make(map[string]string),
	}
}

// Reload swaps in a new catalog. The previous one is closed once the
// executions already running on it have finished.
func (s *Service) Reload(catalog *Catalog) {
	s.mu.Lock()
	old := s.catalog
	s.catalog = catalog
	s.mu.Unlock()

	s.cfg.Metrics.RecordCatalogReload()
	s.logger.Info("catalog reloaded", slog.Int("persistence_units", catalog.Info().NumberOfPersistenceUnits()))

	if old != nil && old != catalog {
		s.retiring.Add(1)
		go s.retire(old)
	}
}

func (s *Service) retire(old *Catalog) {
	defer s.retiring.Done()
	old.inflight.Wait()
	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous catalog", slog.String("error", err.Error()))
	}
}

// Close releases the datasource connections. It waits for replaced
// catalogs to drain first.
func (s *Service) Close() error {
	s.retiring.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.catalog.Close()
	s.catalog = nil
	return err
}

func (s *Service) current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// acquire returns the current catalog pinned against Reload closing it.
// The returned func releases the pin.
func (s *Service) acquire() (*Catalog, func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.catalog
	if c == nil {
		return nil, func() {}
	}
	c.inflight.Add(1)
	return c, c.inflight.Done
}

// GetInfo describes every persistence unit.
func (s *Service) GetInfo(_ context.Context) (*core.DevInfo, error) {
	c := s.current()
	if c == nil {
		return nil, ErrCatalogNotLoaded
	}
	return c.Info(), nil
}

// NumberOfPersistenceUnits counts the persistence units.
func (s *Service) NumberOfPersistenceUnits(_ context.Context) int {
	return s.current().Info().NumberOfPersistenceUnits()
}

// NumberOfEntityTypes counts managed entities across all units.
func (s *Service) NumberOfEntityTypes(_ context.Context) int {
	return s.current().Info().NumberOfEntities()
}

// NumberOfNamedQueries counts named queries across all units.
func (s *Service) NumberOfNamedQueries(_ context.Context) int {
	return s.current().Info().NumberOfNamedQueries()
}

// ExecuteQuery runs one page of a query. Every failure is reported as an
// error data set; it never returns nil.
func (s *Service) ExecuteQuery(ctx context.Context, req core.QueryRequest) *core.DataSet {
	start := time.Now()
	ds := s.executeQuery(ctx, req)
	elapsed := time.Since(start)

	s.cfg.Metrics.RecordQuery(req.PersistenceUnit, ds.Failed(), elapsed)
	s.recordQuery(req, ds, elapsed)

	attrs := []any{
		slog.String("persistence_unit", req.PersistenceUnit),
		slog.Int("page", req.PageNumber),
		slog.Int64("total", ds.TotalNumberOfElements),
		slog.Duration("elapsed", elapsed),
	}
	if ds.Failed() {
		s.logger.Debug("query failed", append(attrs, slog.String("error", ds.Error))...)
	} else {
		s.logger.Debug("query executed", attrs...)
	}
	return ds
}

func (s *Service) executeQuery(ctx context.Context, req core.QueryRequest) *core.DataSet {
	if !s.cfg.DevMode {
		return core.ErrorDataSet(MsgDevModeOnly)
	}
	if strings.TrimSpace(req.Query) == "" {
		return core.ErrorDataSet(MsgInvalidQuery)
	}
	if req.PageNumber < 1 || req.PageSize < 1 || req.PageNumber-1 > math.MaxInt/req.PageSize {
		return core.ErrorDataSet(MsgInvalidPage)
	}

	c, release := s.acquire()
	defer release()
	unit, ok := c.unit(req.PersistenceUnit)
	if !ok {
		return core.ErrorDataSet(MsgNoSuchUnit + req.PersistenceUnit)
	}
	if !unit.location.IsLocal(s.cfg.AllowedHost) {
		return core.ErrorDataSet(MsgNonAllowedDB)
	}
	if unit.adapter == nil {
		return core.ErrorDataSet(fmt.Sprintf("datasource %s is unavailable: %v", unit.datasource, unit.connErr))
	}

	stmt, err := hql.Translate(req.Query, unit.resolve, unit.adapter.QuoteIdent)
	if err != nil {
		return core.ErrorDataSet(err.Error())
	}

	return runPage(ctx, unit.adapter, stmt, req.PageNumber, req.PageSize)
}

func (b *unitBinding) resolve(entity string) (string, bool) {
	table, ok := b.tables[entity]
	return table, ok
}

// UpdateProperty sets a backend-held property.
func (s *Service) UpdateProperty(_ context.Context, name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("property name is required")
	}
	if len(name) > maxPropertyNameBytes {
		return fmt.Errorf("property name too long")
	}

	if s.cfg.Store != nil {
		if err := s.cfg.Store.SetProperty(name, value); err != nil {
			return fmt.Errorf("failed to update property: %w", err)
		}
	} else {
		s.propsMu.Lock()
		s.props[name] = value
		s.propsMu.Unlock()
	}

	s.logger.Info("property updated", slog.String("name", name), slog.String("value", value))
	return nil
}

// Property returns a backend-held property value.
func (s *Service) Property(name string) (string, bool) {
	if s.cfg.Store != nil {
		v, ok, err := s.cfg.Store.GetProperty(name)
		if err != nil {
			s.logger.Warn("failed to read property", slog.String("name", name), slog.String("error", err.Error()))
			return "", false
		}
		return v, ok
	}
	s.propsMu.Lock()
	defer s.propsMu.Unlock()
	v, ok := s.props[name]
	return v, ok
}

// AllowQueries reports whether consoles should start with query execution
// enabled. A stored property overrides the configured default.
func (s *Service) AllowQueries(_ context.Context) bool {
	if v, ok := s.Property(core.AllowQueriesProperty); ok {
		return v == "true"
	}
	return s.cfg.AllowQueries
}

func (s *Service) recordQuery(req core.QueryRequest, ds *core.DataSet, elapsed time.Duration) {
	if s.cfg.Store == nil {
		return
	}
	entry := &core.QueryLogEntry{
		PersistenceUnit: req.PersistenceUnit,
		Query:           req.Query,
		PageNumber:      req.PageNumber,
		PageSize:        req.PageSize,
		Total:           ds.TotalNumberOfElements,
		Error:           ds.Error,
		DurationMS:      elapsed.Milliseconds(),
	}
	if err := s.cfg.Store.RecordQuery(entry); err != nil {
		s.logger.Warn("failed to record query", slog.String("error", err.Error()))
	}
}
