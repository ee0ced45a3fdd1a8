package devservice

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/queryconsole/pkg/adapter"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityName(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"orders", "Orders"},
		{"order_items", "OrderItems"},
		{"audit-log", "AuditLog"},
		{"main.line_item", "MainLineItem"},
		{"ALREADY_UPPER", "AlreadyUpper"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, EntityName(tt.table))
		})
	}
}

func TestBuildCatalog_Errors(t *testing.T) {
	memory := map[string]core.DatasourceConfig{"mem": {Type: "sqlite", Database: ":memory:"}}

	tests := []struct {
		name   string
		cfg    CatalogConfig
		errMsg string
	}{
		{
			name:   "unknown datasource",
			cfg:    CatalogConfig{Datasources: memory, PersistenceUnits: []core.PersistenceUnitConfig{{Name: "default", Datasource: "nope"}}},
			errMsg: `unknown datasource "nope"`,
		},
		{
			name: "duplicate unit",
			cfg: CatalogConfig{Datasources: memory, PersistenceUnits: []core.PersistenceUnitConfig{
				{Name: "default", Datasource: "mem"},
				{Name: "default", Datasource: "mem"},
			}},
			errMsg: "duplicate persistence unit",
		},
		{
			name:   "unnamed unit",
			cfg:    CatalogConfig{Datasources: memory, PersistenceUnits: []core.PersistenceUnitConfig{{Datasource: "mem"}}},
			errMsg: "without a name",
		},
		{
			name: "duplicate entity",
			cfg: CatalogConfig{Datasources: memory, PersistenceUnits: []core.PersistenceUnitConfig{{
				Name: "default", Datasource: "mem",
				Entities: []core.EntityConfig{{Name: "Order"}, {Name: "Order"}},
			}}},
			errMsg: "duplicate entity Order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCatalog(context.Background(), tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuildCatalog_UnknownAdapterTypeIsUnavailable(t *testing.T) {
	c, err := BuildCatalog(context.Background(), CatalogConfig{
		Datasources:      map[string]core.DatasourceConfig{"h2": {Type: "h2"}},
		PersistenceUnits: []core.PersistenceUnitConfig{{Name: "legacy", Datasource: "h2", Entities: []core.EntityConfig{{Name: "Thing"}}}},
	}, nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	b, ok := c.unit("legacy")
	require.True(t, ok)
	assert.Nil(t, b.adapter)
	require.Error(t, b.connErr)
	assert.Contains(t, b.connErr.Error(), "h2")
	assert.Equal(t, 1, c.Info().NumberOfEntities(), "declared entities are still listed")
}

func TestCatalog_NilIsEmpty(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Info().NumberOfPersistenceUnits())
	assert.NoError(t, c.Close())
	_, ok := c.unit("default")
	assert.False(t, ok)
}

type refusingAdapter struct {
	core.Adapter
	closed bool
}

func (a *refusingAdapter) Connect(context.Context, core.AdapterConfig) error {
	return errors.New("connection refused")
}

func (a *refusingAdapter) Close() error {
	a.closed = true
	return nil
}

func TestConnect_ClosesAdapterWhenConnectFails(t *testing.T) {
	refusing := &refusingAdapter{}
	adapter.Register("refusing_test", func(*slog.Logger) adapter.Adapter { return refusing })

	adp, err := connect(context.Background(), core.DatasourceConfig{Type: "refusing_test"}, nil)
	require.ErrorContains(t, err, "connection refused")
	assert.Nil(t, adp)
	assert.True(t, refusing.closed)
}
