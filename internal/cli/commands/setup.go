package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/queryconsole/internal/cli/config"
	"github.com/leapstack-labs/queryconsole/internal/devservice"
	"github.com/leapstack-labs/queryconsole/internal/metrics"
	"github.com/leapstack-labs/queryconsole/internal/state"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext reads the configuration and logger stored on the command context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    config.GetConfig(cmd.Context()),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// Backend is an opened dev service with its state store.
type Backend struct {
	Service *devservice.Service
	Store   *state.SQLiteStore
	Metrics *metrics.Metrics
}

// Close releases the datasources and the state store.
func (b *Backend) Close() error {
	err := b.Service.Close()
	if cerr := b.Store.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenStore opens the state database, creating it and its directory when missing.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	path := c.Cfg.StatePath
	if path == "" {
		path = config.DefaultStateFile
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// OpenBackend builds the catalog and the dev service over it. m may be nil.
func (c *CommandContext) OpenBackend(ctx context.Context, m *metrics.Metrics) (*Backend, error) {
	store, err := c.OpenStore()
	if err != nil {
		return nil, err
	}

	catalog, err := devservice.BuildCatalog(ctx, c.Cfg.Catalog(), c.Logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	svcCfg := c.Cfg.Service()
	svcCfg.Store = store
	svcCfg.Metrics = m
	svcCfg.Logger = c.Logger

	return &Backend{
		Service: devservice.New(svcCfg, catalog),
		Store:   store,
		Metrics: m,
	}, nil
}

// ReloadCatalog re-reads the configuration file and swaps the service's catalog.
func (c *CommandContext) ReloadCatalog(ctx context.Context, svc *devservice.Service) error {
	cfg, err := config.LoadConfig(c.Cfg.ConfigFile, nil)
	if err != nil {
		return err
	}
	catalog, err := devservice.BuildCatalog(ctx, cfg.Catalog(), c.Logger)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}
	svc.Reload(catalog)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}
