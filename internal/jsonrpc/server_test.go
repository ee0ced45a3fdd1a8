package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	info      *core.DevInfo
	infoErr   error
	lastQuery core.QueryRequest
	props     map[string]string
	allow     bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		info: &core.DevInfo{PersistenceUnits: []core.PersistenceUnit{{
			Name:            "default",
			ManagedEntities: []core.ManagedEntity{{Name: "Order", ClassName: "com.shop.Order", TableName: "orders"}},
			NamedQueries:    []core.NamedQuery{{Name: "Order.all", Query: "from Order"}},
		}}},
		props: map[string]string{},
	}
}

func (f *fakeBackend) GetInfo(context.Context) (*core.DevInfo, error) {
	return f.info, f.infoErr
}
func (f *fakeBackend) NumberOfPersistenceUnits(context.Context) int {
	return f.info.NumberOfPersistenceUnits()
}
func (f *fakeBackend) NumberOfEntityTypes(context.Context) int { return f.info.NumberOfEntities() }
func (f *fakeBackend) NumberOfNamedQueries(context.Context) int {
	return f.info.NumberOfNamedQueries()
}
func (f *fakeBackend) ExecuteQuery(_ context.Context, req core.QueryRequest) *core.DataSet {
	f.lastQuery = req
	if req.Query == "boom" {
		return core.ErrorDataSet("boom")
	}
	return &core.DataSet{
		Data:                  []core.Record{{"id": 1, "name": "first"}},
		TotalNumberOfElements: 30,
		Cols:                  []string{"id", "name"},
	}
}
func (f *fakeBackend) UpdateProperty(_ context.Context, name, value string) error {
	if name == "" {
		return errors.New("property name is required")
	}
	f.props[name] = value
	return nil
}
func (f *fakeBackend) AllowQueries(context.Context) bool { return f.allow }

func post(t *testing.T, srv http.Handler, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body)))
	var resp Response
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestServer_Methods(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result string
	}{
		{
			name:   "getInfo",
			body:   `{"jsonrpc":"2.0","id":1,"method":"getInfo"}`,
			result: `{"persistenceUnits":[{"name":"default","managedEntities":[{"name":"Order","className":"com.shop.Order","tableName":"orders"}],"namedQueries":[{"name":"Order.all","query":"from Order"}]}]}`,
		},
		{
			name:   "getNumberOfPersistenceUnits",
			body:   `{"jsonrpc":"2.0","id":2,"method":"getNumberOfPersistenceUnits"}`,
			result: `1`,
		},
		{
			name:   "getNumberOfEntityTypes",
			body:   `{"jsonrpc":"2.0","id":3,"method":"getNumberOfEntityTypes"}`,
			result: `1`,
		},
		{
			name:   "getNumberOfNamedQueries",
			body:   `{"jsonrpc":"2.0","id":4,"method":"getNumberOfNamedQueries"}`,
			result: `1`,
		},
		{
			name:   "executeQuery",
			body:   `{"jsonrpc":"2.0","id":5,"method":"executeQuery","params":{"persistenceUnit":"default","query":"from Order","pageNumber":1,"pageSize":12}}`,
			result: `{"data":[{"id":1,"name":"first"}],"totalNumberOfElements":30,"cols":["id","name"]}`,
		},
		{
			name:   "executeQuery error data set",
			body:   `{"jsonrpc":"2.0","id":6,"method":"executeQuery","params":{"persistenceUnit":"default","query":"boom","pageNumber":1,"pageSize":12}}`,
			result: `{"totalNumberOfElements":-1,"error":"boom"}`,
		},
		{
			name:   "updateProperty",
			body:   `{"jsonrpc":"2.0","id":"u1","method":"updateProperty","params":{"name":"console.allow_queries","value":"true"}}`,
			result: `true`,
		},
		{
			name:   "getAllowQueries",
			body:   `{"jsonrpc":"2.0","id":7,"method":"getAllowQueries"}`,
			result: `false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(newFakeBackend(), nil)
			rec, resp := post(t, srv, tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Nil(t, resp.Error)
			assert.JSONEq(t, tt.result, string(resp.Result))
		})
	}
}

func TestServer_PassesQueryRequest(t *testing.T) {
	backend := newFakeBackend()
	srv := NewServer(backend, nil)

	_, resp := post(t, srv, `{"jsonrpc":"2.0","id":1,"method":"executeQuery","params":{"persistenceUnit":"default","query":"from Order","pageNumber":3,"pageSize":12}}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, core.QueryRequest{PersistenceUnit: "default", Query: "from Order", PageNumber: 3, PageSize: 12}, backend.lastQuery)
	assert.JSONEq(t, "1", string(resp.ID), "id is echoed")
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"jsonrpc":`, CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"getInfo"}`, CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"dropEverything"}`, CodeMethodNotFound},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"executeQuery"}`, CodeInvalidParams},
		{"unknown param field", `{"jsonrpc":"2.0","id":1,"method":"executeQuery","params":{"hql":"from Order"}}`, CodeInvalidParams},
		{"backend error", `{"jsonrpc":"2.0","id":1,"method":"updateProperty","params":{"name":"","value":"x"}}`, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := post(t, NewServer(newFakeBackend(), nil), tt.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestServer_GetInfoFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.infoErr = errors.New("persistence units are not loaded")

	_, resp := post(t, NewServer(backend, nil), `{"jsonrpc":"2.0","id":1,"method":"getInfo"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, "persistence units are not loaded", resp.Error.Message)
}

func TestServer_Notification(t *testing.T) {
	backend := newFakeBackend()
	rec, _ := post(t, NewServer(backend, nil), `{"jsonrpc":"2.0","method":"updateProperty","params":{"name":"a","value":"b"}}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "b", backend.props["a"], "notifications are still executed")
}

func TestServer_RejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(newFakeBackend(), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
