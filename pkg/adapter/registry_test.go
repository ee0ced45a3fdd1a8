package adapter_test

import (
	"log/slog"
	"testing"

	"github.com/leapstack-labs/queryconsole/pkg/adapter"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Adapters register themselves from init().
	_ "github.com/leapstack-labs/queryconsole/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/queryconsole/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/queryconsole/pkg/adapters/sqlite"
)

func TestRegistry_BuiltinAdapters(t *testing.T) {
	assert.Equal(t, []string{"duckdb", "postgres", "sqlite"}, filterBuiltin(adapter.ListAdapters()))

	for _, name := range []string{"duckdb", "postgres", "sqlite"} {
		factory, ok := adapter.Get(name)
		require.True(t, ok, name)
		assert.NotNil(t, factory(nil), "%s factory builds an adapter without a logger", name)
	}
	assert.False(t, adapter.IsRegistered("oracle"))
}

func TestRegistry_Register(t *testing.T) {
	adapter.Register("memo_test", func(_ *slog.Logger) adapter.Adapter { return nil })
	assert.True(t, adapter.IsRegistered("memo_test"))
	assert.Contains(t, adapter.ListAdapters(), "memo_test")
}

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     core.AdapterConfig
		wantErr string
	}{
		{name: "sqlite", cfg: core.AdapterConfig{Type: "sqlite", Path: ":memory:"}},
		{name: "duckdb", cfg: core.AdapterConfig{Type: "duckdb", Path: ":memory:"}},
		{name: "missing type", wantErr: "adapter type not specified"},
		{name: "unknown type", cfg: core.AdapterConfig{Type: "oracle"}, wantErr: `unknown adapter type "oracle"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := adapter.NewAdapter(tt.cfg, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, a)
		})
	}
}

func TestUnknownAdapterError(t *testing.T) {
	_, err := adapter.NewAdapter(core.AdapterConfig{Type: "oracle"}, nil)

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
	assert.Contains(t, unknown.Available, "sqlite")
	assert.Contains(t, err.Error(), "datasources.<name>.type in queryconsole.yaml")
}

func filterBuiltin(names []string) []string {
	var out []string
	for _, n := range names {
		switch n {
		case "duckdb", "postgres", "sqlite":
			out = append(out, n)
		}
	}
	return out
}
