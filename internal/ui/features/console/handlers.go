package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/queryconsole/internal/console"
	"github.com/leapstack-labs/queryconsole/internal/ui/features/console/components"
	"github.com/leapstack-labs/queryconsole/internal/ui/notifier"
	"github.com/starfederation/datastar-go/datastar"
)

const (
	sessionName  = "queryconsole"
	sessionIDKey = "id"
)

type sessionIDCtxKey struct{}

// Handlers provides HTTP handlers for the console feature.
type Handlers struct {
	panels       *PanelStore
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(panels *PanelStore, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger, isDev bool) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		panels:       panels,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
		isDev:        isDev,
	}
}

// WithSession makes sure the browser carries a session id cookie and puts
// the id on the request context. It runs before any SSE response starts.
func (h *Handlers) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessionStore.Get(r, sessionName)
		if err != nil {
			h.logger.Debug("discarding unreadable session cookie", slog.String("error", err.Error()))
		}

		id, _ := sess.Values[sessionIDKey].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values[sessionIDKey] = id
			if err := sess.Save(r, w); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDCtxKey{}, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDCtxKey{}).(string)
	return id
}

func (h *Handlers) panel(r *http.Request) *console.Panel {
	return h.panels.Get(r.Context(), sessionID(r))
}

// ConsolePage renders the whole console for the session.
func (h *Handlers) ConsolePage(w http.ResponseWriter, r *http.Request) {
	snap := h.panel(r).Snapshot()
	if err := components.Page("Query Console", h.isDev, snap).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ConsoleUpdates is the long-lived SSE endpoint of the page. On every
// catalog reload it reloads the session's panel and patches the view.
func (h *Handlers) ConsoleUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates, unsubscribe := h.notifier.Subscribe()
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			p := h.panel(r)
			if err := p.Reload(ctx); err != nil && !errors.Is(err, console.ErrStale) {
				h.logger.Debug("panel reload failed", slog.Uint64("generation", ev.Generation), slog.String("error", err.Error()))
			}
			if err := h.patch(sse, p); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// operation runs fn against the session's panel and patches the result.
type operation func(ctx context.Context, p *console.Panel, r *http.Request, signals Signals) error

func (h *Handlers) handle(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Read signals BEFORE creating SSE (SSE consumes the request body)
		var signals Signals
		if err := datastar.ReadSignals(r, &signals); err != nil {
			sse := datastar.NewSSE(w, r)
			_ = sse.ConsoleError(errors.New("failed to read signals: " + err.Error()))
			return
		}

		sse := datastar.NewSSE(w, r)
		p := h.panel(r)

		err := op(r.Context(), p, r, signals)
		if errors.Is(err, console.ErrStale) {
			// a newer operation of this session patches the view
			return
		}
		if err != nil {
			h.logger.Debug("console operation failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
			var qe *console.QueryError
			if !errors.As(err, &qe) {
				_ = sse.ConsoleError(err)
			}
		}

		if err := h.patch(sse, p); err != nil {
			_ = sse.ConsoleError(err)
		}
	}
}

func (h *Handlers) patch(sse *datastar.ServerSentEventGenerator, p *console.Panel) error {
	snap := p.Snapshot()
	if err := sse.PatchElementTempl(components.Panel(snap)); err != nil {
		return err
	}
	if err := sse.PatchElementTempl(components.Toasts(snap.Notices)); err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(Signals{Query: snap.Query})
}

// Reload fetches the catalog again ("Check again").
func (h *Handlers) Reload(ctx context.Context, p *console.Panel, _ *http.Request, _ Signals) error {
	return p.Reload(ctx)
}

// SelectUnit switches the persistence unit named in the path.
func (h *Handlers) SelectUnit(ctx context.Context, p *console.Panel, r *http.Request, _ Signals) error {
	return p.SelectUnit(ctx, chi.URLParam(r, "name"))
}

// SelectEntity selects the entity at the index in the path.
func (h *Handlers) SelectEntity(ctx context.Context, p *console.Panel, r *http.Request, _ Signals) error {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return console.ErrUnknownEntity
	}
	return p.SelectEntity(ctx, idx)
}

// EnableQueries allows free-form queries for the session.
func (h *Handlers) EnableQueries(ctx context.Context, p *console.Panel, _ *http.Request, _ Signals) error {
	return p.EnableQueries(ctx)
}

// Submit runs the query from the editor signal.
func (h *Handlers) Submit(ctx context.Context, p *console.Panel, _ *http.Request, signals Signals) error {
	return p.Submit(ctx, signals.Query)
}

// Reset restores the default query of the selected entity.
func (h *Handlers) Reset(ctx context.Context, p *console.Panel, _ *http.Request, _ Signals) error {
	return p.Reset(ctx)
}

// NextPage moves one page forward.
func (h *Handlers) NextPage(ctx context.Context, p *console.Panel, _ *http.Request, _ Signals) error {
	return p.NextPage(ctx)
}

// PreviousPage moves one page back.
func (h *Handlers) PreviousPage(ctx context.Context, p *console.Panel, _ *http.Request, _ Signals) error {
	return p.PreviousPage(ctx)
}

// DismissNotice removes the notice with the id in the path.
func (h *Handlers) DismissNotice(_ context.Context, p *console.Panel, r *http.Request, _ Signals) error {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil
	}
	p.Dismiss(id)
	return nil
}
