// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/queryconsole/internal/jsonrpc"
	"github.com/leapstack-labs/queryconsole/internal/metrics"
	consoleFeature "github.com/leapstack-labs/queryconsole/internal/ui/features/console"
	"github.com/leapstack-labs/queryconsole/internal/ui/notifier"
	"github.com/leapstack-labs/queryconsole/internal/ui/resources"
)

// Deps are the collaborators of the routes.
type Deps struct {
	// Service backs both the console pages and /json-rpc.
	Service      jsonrpc.Backend
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	PageSize     int
	PanelTTL     time.Duration
	IsDev        bool
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router.Handle("/static/*", resources.Handler())

	router.Handle(jsonrpc.Path, jsonrpc.NewServer(deps.Service, logger.With(slog.String("component", "jsonrpc"))))

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	panels := consoleFeature.NewPanelStore(deps.Service, deps.PanelTTL, deps.PageSize, logger)
	return consoleFeature.SetupRoutes(router, panels, deps.SessionStore, deps.Notifier, logger, deps.IsDev)
}
