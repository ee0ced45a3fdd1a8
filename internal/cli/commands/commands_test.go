package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/queryconsole/internal/cli/config"
	"github.com/leapstack-labs/queryconsole/internal/testutil"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testConfig returns a configuration over a fresh shop database: unit
// "default" with Order and Customer, unit "audit" with AuditLog.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	shopDB := testutil.NewShopDB(t)
	return &config.Config{
		DevMode:   true,
		StatePath: filepath.Join(t.TempDir(), "state", "state.db"),
		Console:   config.ConsoleConfig{PageSize: core.DefaultPageSize},
		UI:        config.UIConfig{Port: config.DefaultPort},
		Datasources: map[string]core.DatasourceConfig{
			"shop": {Type: "sqlite", Database: shopDB},
		},
		PersistenceUnits: []core.PersistenceUnitConfig{
			{
				Name:       "default",
				Datasource: "shop",
				Entities: []core.EntityConfig{
					{Name: "Order", Table: "orders", ClassName: "com.shop.Order"},
					{Name: "Customer", Table: "customers"},
				},
				NamedQueries: []core.NamedQuery{{Name: "Order.big", Query: "from Order o where o.total > 100"}},
			},
			{
				Name:       "audit",
				Datasource: "shop",
				Entities:   []core.EntityConfig{{Name: "AuditLog", Table: "audit_log"}},
			},
		},
	}
}

func testCommandContext(t *testing.T, cfg *config.Config) *CommandContext {
	t.Helper()
	return &CommandContext{Cfg: cfg, Logger: testutil.NewTestLogger(t)}
}

// testCommand returns a command whose context carries cfg and a test logger.
func testCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config) *cobra.Command {
	t.Helper()
	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	cmd.SetContext(ctx)
	return cmd
}

func openTestBackend(t *testing.T, cfg *config.Config) *Backend {
	t.Helper()
	b, err := testCommandContext(t, cfg).OpenBackend(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}
