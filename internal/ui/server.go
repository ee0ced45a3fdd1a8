// Package ui serves the web query console, its JSON-RPC endpoint and metrics.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/queryconsole/internal/jsonrpc"
	"github.com/leapstack-labs/queryconsole/internal/metrics"
	"github.com/leapstack-labs/queryconsole/internal/ui/notifier"
	"github.com/leapstack-labs/queryconsole/internal/ui/router"
	"golang.org/x/sync/errgroup"
)

const debounce = 100 * time.Millisecond

// Config holds configuration for the UI server.
type Config struct {
	Service       jsonrpc.Backend
	Metrics       *metrics.Metrics
	Port          int
	SessionSecret string
	PageSize      int
	PanelTTL      time.Duration
	IsDev         bool

	// Watch enables reloading when one of WatchFiles changes. OnChange
	// rebuilds the catalog; open consoles are told to reload afterwards.
	Watch      bool
	WatchFiles []string
	OnChange   func(ctx context.Context) error

	Logger *slog.Logger
}

// Server is the main UI server.
type Server struct {
	cfg          Config
	sessionStore *sessions.CookieStore
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400) // 1 day
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		cfg:          cfg,
		sessionStore: sessionStore,
		notifier:     notifier.New(),
		logger:       logger,
	}
}

// Handler builds the router with middleware and all routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	err := router.SetupRoutes(r, router.Deps{
		Service:      s.cfg.Service,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Metrics:      s.cfg.Metrics,
		Logger:       s.logger,
		PageSize:     s.cfg.PageSize,
		PanelTTL:     s.cfg.PanelTTL,
		IsDev:        s.cfg.IsDev,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.serve(ctx, ln, handler)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting UI server", slog.String("addr", "http://"+displayAddr(ln.Addr())))

	if s.cfg.Watch && len(s.cfg.WatchFiles) > 0 {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func displayAddr(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.IP.IsUnspecified() {
		return fmt.Sprintf("localhost:%d", tcp.Port)
	}
	return addr.String()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchFiles watches the directories of the configured files, since editors
// often replace a file instead of writing it, and reacts to changes of
// those files only.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(s.cfg.WatchFiles))
	for _, f := range s.cfg.WatchFiles {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			s.logger.Error("failed to watch config directory", slog.String("path", abs), slog.String("error", err.Error()))
		}
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !watched[name] {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				s.reload(ctx, name)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (s *Server) reload(ctx context.Context, file string) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("configuration changed, reloading", slog.String("file", file))
	if s.cfg.OnChange != nil {
		if err := s.cfg.OnChange(ctx); err != nil {
			s.logger.Error("reload failed", slog.String("error", err.Error()))
			return
		}
	}
	s.notifier.Broadcast("configuration changed: " + filepath.Base(file))
}
