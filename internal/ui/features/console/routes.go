package console

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/queryconsole/internal/ui/notifier"
)

// SetupRoutes registers the console page, its update stream and operations.
func SetupRoutes(
	router chi.Router,
	panels *PanelStore,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	h := NewHandlers(panels, sessionStore, notify, logger, isDev)

	router.Group(func(r chi.Router) {
		r.Use(h.WithSession)

		r.Get("/", h.ConsolePage)
		r.Get("/updates", h.ConsoleUpdates)

		r.Route("/api/console", func(r chi.Router) {
			r.Post("/reload", h.handle(h.Reload))
			r.Post("/unit/{name}", h.handle(h.SelectUnit))
			r.Post("/entity/{index}", h.handle(h.SelectEntity))
			r.Post("/enable", h.handle(h.EnableQueries))
			r.Post("/submit", h.handle(h.Submit))
			r.Post("/reset", h.handle(h.Reset))
			r.Post("/next", h.handle(h.NextPage))
			r.Post("/prev", h.handle(h.PreviousPage))
			r.Post("/notices/{id}/dismiss", h.handle(h.DismissNotice))
		})
	})

	return nil
}
