// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/queryconsole/internal/devservice"
	"github.com/leapstack-labs/queryconsole/internal/metrics"
	"github.com/leapstack-labs/queryconsole/internal/state"
	"github.com/leapstack-labs/queryconsole/internal/testutil"
	"github.com/leapstack-labs/queryconsole/internal/ui/notifier"
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Service      *devservice.Service
	Store        core.Store
	Metrics      *metrics.Metrics
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	ShopDB       string
}

// FixtureOptions tweak the service of a fixture.
type FixtureOptions struct {
	AllowQueries bool
}

// ShopCatalog returns a catalog config over the given shop database:
// unit "default" with Order and Customer, and unit "audit" with no rows.
func ShopCatalog(shopDB string) devservice.CatalogConfig {
	return devservice.CatalogConfig{
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
			},
			{
				Name:       "audit",
				Datasource: "shop",
				Entities:   []core.EntityConfig{{Name: "AuditLog", Table: "audit_log"}},
			},
		},
	}
}

// SetupTestFixture creates a dev-mode service over a fresh shop database
// with an in-memory state store.
func SetupTestFixture(t *testing.T, opts FixtureOptions) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })

	m, err := metrics.New()
	require.NoError(t, err)

	shopDB := testutil.NewShopDB(t)
	catalog, err := devservice.BuildCatalog(context.Background(), ShopCatalog(shopDB), logger)
	require.NoError(t, err)

	svc := devservice.New(devservice.Config{
		DevMode:      true,
		AllowQueries: opts.AllowQueries,
		Store:        store,
		Metrics:      m,
		Logger:       logger,
	}, catalog)
	t.Cleanup(func() { _ = svc.Close() })

	return &TestFixture{
		Service:      svc,
		Store:        store,
		Metrics:      m,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		ShopDB:       shopDB,
	}
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
