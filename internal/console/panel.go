// Package console implements the query console panel: selection of a
// persistence unit and entity, the query editor and the paged result grid.
//
// Panel holds all state behind a mutex. Every operation mutates state,
// issues at most one backend call and leaves a consistent state that
// Snapshot renders. Frontends (web, terminal) only translate user input
// into operations and snapshots into output.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

var (
	// ErrQueriesDisabled is returned by Submit while the session does not allow queries.
	ErrQueriesDisabled = errors.New("query execution is not enabled for this session")

	// ErrStale is returned for a response superseded by a newer execution; it was discarded.
	ErrStale = errors.New("result superseded by a newer query")

	// ErrUnknownUnit is returned when selecting a persistence unit that is not in the catalog.
	ErrUnknownUnit = errors.New("unknown persistence unit")

	// ErrUnknownEntity is returned when selecting an entity index out of range.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNoSelection is returned by operations that need a selected persistence unit.
	ErrNoSelection = errors.New("no persistence unit selected")
)

// QueryError is a failure reported by the backend inside a data set.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}

// Options configures a Panel.
type Options struct {
	// PageSize defaults to core.DefaultPageSize.
	PageSize int
	// Logger for panel events. Nil uses a discard logger.
	Logger *slog.Logger
	// Now defaults to time.Now; tests may pin it.
	Now func() time.Time
}

// Panel is the query console state machine.
type Panel struct {
	backend  Backend
	session  *Session
	logger   *slog.Logger
	pageSize int
	now      func() time.Time

	mu         sync.Mutex
	loaded     bool
	catalog    *core.DevInfo
	catalogErr string
	unit       string
	entity     int
	query      string
	page       int
	result     *core.DataSet

	notices   []Notice
	noticeSeq uint64

	seq    uint64
	cancel context.CancelFunc
	busy   bool
}

// NewPanel creates a panel for one session.
func NewPanel(backend Backend, session *Session, opts Options) *Panel {
	if session == nil {
		session = NewSession(false)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Panel{
		backend:  backend,
		session:  session,
		logger:   opts.Logger,
		pageSize: opts.PageSize,
		now:      opts.Now,
		catalog:  &core.DevInfo{},
		entity:   -1,
		page:     1,
	}
}

// Session returns the panel's session.
func (p *Panel) Session() *Session {
	return p.session
}

// Mount fetches the catalog and selects the first persistence unit, which
// runs the default query of its first entity. A failed fetch leaves an
// empty catalog and an error notice; Mount can be called again to retry.
func (p *Panel) Mount(ctx context.Context) error {
	if err := p.fetchCatalog(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	first := ""
	if len(p.catalog.PersistenceUnits) > 0 {
		first = p.catalog.PersistenceUnits[0].Name
	}
	p.mu.Unlock()

	if first == "" {
		p.clearSelection()
		return nil
	}
	return p.SelectUnit(ctx, first)
}

// Reload fetches the catalog again. The current selection, query and page
// survive when the unit and entity still exist; otherwise it behaves like Mount.
func (p *Panel) Reload(ctx context.Context) error {
	p.mu.Lock()
	unit, entityName, hadQuery := p.unit, p.entityNameLocked(), p.query != ""
	p.mu.Unlock()

	if err := p.fetchCatalog(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	pu, ok := p.catalog.Unit(unit)
	if !ok || unit == "" {
		p.mu.Unlock()
		return p.Mount(ctx)
	}
	idx := -1
	for i, e := range pu.ManagedEntities {
		if e.Name == entityName {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return p.SelectUnit(ctx, unit)
	}
	p.entity = idx
	p.mu.Unlock()

	if !hadQuery {
		return nil
	}
	return p.execute(ctx)
}

func (p *Panel) fetchCatalog(ctx context.Context) error {
	info, err := p.backend.GetInfo(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	if err != nil {
		p.catalog = &core.DevInfo{}
		p.catalogErr = err.Error()
		p.unit, p.entity, p.query, p.page, p.result = "", -1, "", 1, nil
		p.notify(NoticeError, "Failed to load persistence units: "+err.Error())
		p.logger.Warn("catalog fetch failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to load persistence units: %w", err)
	}
	if info == nil {
		info = &core.DevInfo{}
	}
	p.catalog = info
	p.catalogErr = ""
	return nil
}

func (p *Panel) clearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unit, p.entity, p.query, p.page, p.result = "", -1, "", 1, nil
}

// SelectUnit makes name the current persistence unit and selects its first
// entity, which runs that entity's default query.
func (p *Panel) SelectUnit(ctx context.Context, name string) error {
	p.mu.Lock()
	pu, ok := p.catalog.Unit(name)
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownUnit, name)
	}
	p.unit = name
	p.entity = -1
	p.result = nil
	empty := len(pu.ManagedEntities) == 0
	if empty {
		p.query = ""
		p.page = 1
	}
	p.mu.Unlock()

	if empty {
		return nil
	}
	return p.SelectEntity(ctx, 0)
}

// SelectEntity makes the entity at index current, sets the query to
// "from <Entity>" on page 1 and runs it.
func (p *Panel) SelectEntity(ctx context.Context, index int) error {
	p.mu.Lock()
	pu, ok := p.catalog.Unit(p.unit)
	if !ok {
		p.mu.Unlock()
		return ErrNoSelection
	}
	if index < 0 || index >= len(pu.ManagedEntities) {
		p.mu.Unlock()
		return fmt.Errorf("%w: index %d", ErrUnknownEntity, index)
	}
	p.entity = index
	p.query = "from " + pu.ManagedEntities[index].Name
	p.page = 1
	p.mu.Unlock()

	return p.execute(ctx)
}

// SelectEntityByName selects an entity of the current unit by name.
func (p *Panel) SelectEntityByName(ctx context.Context, name string) error {
	p.mu.Lock()
	idx := -1
	if pu, ok := p.catalog.Unit(p.unit); ok {
		for i, e := range pu.ManagedEntities {
			if e.Name == name {
				idx = i
				break
			}
		}
	}
	p.mu.Unlock()

	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return p.SelectEntity(ctx, idx)
}

// EnableQueries asks the backend to allow query execution and, on success,
// enables it for the rest of the session. It is a no-op once enabled.
func (p *Panel) EnableQueries(ctx context.Context) error {
	if p.session.AllowQueries() {
		return nil
	}

	if err := p.backend.UpdateProperty(ctx, core.AllowQueriesProperty, "true"); err != nil {
		p.mu.Lock()
		p.notify(NoticeError, "Failed to enable query execution: "+err.Error())
		p.mu.Unlock()
		return fmt.Errorf("failed to enable query execution: %w", err)
	}

	p.session.enable()
	p.mu.Lock()
	p.notify(NoticeSuccess, "Query execution enabled")
	p.mu.Unlock()
	p.logger.Info("query execution enabled")
	return nil
}

// Submit replaces the query with the trimmed text and runs it at the
// current page number.
func (p *Panel) Submit(ctx context.Context, text string) error {
	if !p.session.AllowQueries() {
		return ErrQueriesDisabled
	}

	p.mu.Lock()
	if p.unit == "" {
		p.mu.Unlock()
		return ErrNoSelection
	}
	p.query = strings.TrimSpace(text)
	p.mu.Unlock()

	return p.execute(ctx)
}

// Reset restores the selected entity's default query on page 1.
func (p *Panel) Reset(ctx context.Context) error {
	p.mu.Lock()
	idx := p.entity
	p.mu.Unlock()

	if idx < 0 {
		return ErrNoSelection
	}
	return p.SelectEntity(ctx, idx)
}

// NextPage advances one page and re-runs the current query.
func (p *Panel) NextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.unit == "" || p.query == "" {
		p.mu.Unlock()
		return ErrNoSelection
	}
	p.page++
	p.mu.Unlock()

	return p.execute(ctx)
}

// PreviousPage goes back one page and re-runs the current query. It does
// nothing on the first page.
func (p *Panel) PreviousPage(ctx context.Context) error {
	p.mu.Lock()
	if p.page <= 1 || p.query == "" {
		p.mu.Unlock()
		return nil
	}
	p.page--
	p.mu.Unlock()

	return p.execute(ctx)
}

// execute runs the current query state. Only the latest execution may
// update the result: starting a new one cancels the previous call and a
// superseded response is discarded with ErrStale.
func (p *Panel) execute(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	if p.cancel != nil {
		p.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.busy = true
	req := core.QueryRequest{
		PersistenceUnit: p.unit,
		Query:           p.query,
		PageNumber:      p.page,
		PageSize:        p.pageSize,
	}
	p.mu.Unlock()

	ds, err := p.backend.ExecuteQuery(callCtx, req)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		p.logger.Debug("discarding stale result", slog.Uint64("seq", seq), slog.Uint64("latest", p.seq))
		return ErrStale
	}
	p.busy = false
	p.cancel = nil

	switch {
	case err != nil:
		p.notify(NoticeError, err.Error())
		return err
	case ds == nil:
		p.notify(NoticeError, "empty response from backend")
		return &QueryError{Message: "empty response from backend"}
	case ds.Failed():
		p.notify(NoticeError, ds.Error)
		return &QueryError{Message: ds.Error}
	}

	p.result = ds
	return nil
}

func (p *Panel) entityNameLocked() string {
	pu, ok := p.catalog.Unit(p.unit)
	if !ok || p.entity < 0 || p.entity >= len(pu.ManagedEntities) {
		return ""
	}
	return pu.ManagedEntities[p.entity].Name
}

// QueryState returns the request the panel would send for its current state.
func (p *Panel) QueryState() core.QueryRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.QueryRequest{
		PersistenceUnit: p.unit,
		Query:           p.query,
		PageNumber:      p.page,
		PageSize:        p.pageSize,
	}
}
