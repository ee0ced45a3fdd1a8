package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/queryconsole/internal/console"
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

type fakeBackend struct {
	mu       sync.Mutex
	infoErr  error
	requests []core.QueryRequest
}

func (f *fakeBackend) GetInfo(context.Context) (*core.DevInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &core.DevInfo{PersistenceUnits: []core.PersistenceUnit{
		{Name: "default", ManagedEntities: []core.ManagedEntity{{Name: "Order"}, {Name: "Customer"}}},
		{Name: "audit", ManagedEntities: []core.ManagedEntity{{Name: "AuditLog"}}},
	}}, nil
}

func (f *fakeBackend) ExecuteQuery(_ context.Context, req core.QueryRequest) (*core.DataSet, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if req.Query == "boom" {
		return core.ErrorDataSet("unexpected token: boom"), nil
	}
	const total = 30
	ds := &core.DataSet{TotalNumberOfElements: total, Cols: []string{"id", "query"}}
	for i := (req.PageNumber-1)*req.PageSize + 1; i <= total && len(ds.Data) < req.PageSize; i++ {
		ds.Data = append(ds.Data, core.Record{"id": int64(i), "query": req.Query})
	}
	return ds, nil
}

func (f *fakeBackend) UpdateProperty(context.Context, string, string) error {
	return nil
}

func (f *fakeBackend) last() core.QueryRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// drive runs panel operations synchronously and feeds their result back,
// like the program loop. Other messages are dropped.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case opDoneMsg:
		next, cmd := m.Update(msg)
		return drive(t, next.(Model), cmd)
	case tea.BatchMsg:
		for _, c := range msg {
			m = drive(t, m, c)
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		case "ctrl+l":
			msg = tea.KeyMsg{Type: tea.KeyCtrlL}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func mounted(t *testing.T, backend *fakeBackend, allow bool) Model {
	t.Helper()
	p := console.NewPanel(backend, console.NewSession(allow), console.Options{})
	m := New(context.Background(), p)
	m.editor.Cursor.SetMode(cursor.CursorStatic)
	m = drive(t, m, m.Init())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func TestModel_Mount(t *testing.T) {
	backend := &fakeBackend{}
	m := mounted(t, backend, false)

	assert.Equal(t, core.QueryRequest{PersistenceUnit: "default", Query: "from Order", PageNumber: 1, PageSize: 12}, backend.last())
	view := m.View()
	assert.Contains(t, view, "Page 1 of 3 (30 elements)")
	assert.Contains(t, view, "[a] allow queries")
	assert.Contains(t, view, "→ [n]")
	assert.NotContains(t, view, "[p] ←")
	assert.Len(t, m.grid.Rows(), 12)
}

func TestModel_Paging(t *testing.T) {
	backend := &fakeBackend{}
	m := mounted(t, backend, false)

	m = press(t, m, "n", "n", "p")
	assert.Equal(t, 2, m.snap.Page)
	assert.Equal(t, core.QueryRequest{PersistenceUnit: "default", Query: "from Order", PageNumber: 2, PageSize: 12}, backend.last())

	m = press(t, m, "n", "n")
	assert.Equal(t, 3, m.snap.Page, "next is unavailable on the last page")
	assert.NotContains(t, m.View(), "→ [n]")
}

func TestModel_SelectEntityAndUnit(t *testing.T) {
	backend := &fakeBackend{}
	m := mounted(t, backend, false)

	m = press(t, m, "down", "enter")
	assert.Equal(t, "from Customer", backend.last().Query)
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, "u")
	assert.Equal(t, "audit", m.snap.Unit)
	assert.Equal(t, "from AuditLog", backend.last().Query)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, "u")
	assert.Equal(t, "default", m.snap.Unit, "units wrap around")
}

func TestModel_QueriesNeedPermission(t *testing.T) {
	backend := &fakeBackend{}
	m := mounted(t, backend, false)

	m = press(t, m, "tab")
	assert.Equal(t, focusGrid, m.focus, "the editor is skipped while queries are disabled")

	calls := len(backend.requests)
	m = press(t, m, "ctrl+r")
	assert.Len(t, backend.requests, calls)

	m = press(t, m, "a")
	require.True(t, m.snap.AllowQueries)
	m = press(t, m, "tab", "tab")
	assert.Equal(t, focusEditor, m.focus)

	m.editor.SetValue("  from Order o where o.id > 3 ")
	m = press(t, m, "n")
	assert.Contains(t, m.editor.Value(), "n", "keys go to the editor while it has focus")

	m.editor.SetValue("  from Order o where o.id > 3 ")
	m = press(t, m, "ctrl+r")
	assert.Equal(t, "from Order o where o.id > 3", backend.last().Query)
	assert.Equal(t, "from Order o where o.id > 3", m.editor.Value(), "the editor shows the trimmed query")

	m = press(t, m, "ctrl+l")
	assert.Equal(t, "from Order", backend.last().Query)
}

func TestModel_ErrorResponseKeepsGrid(t *testing.T) {
	backend := &fakeBackend{}
	m := mounted(t, backend, true)
	before := m.grid.Rows()

	m.editor.SetValue("boom")
	m = press(t, m, "ctrl+r")

	assert.Equal(t, before, m.grid.Rows())
	assert.Contains(t, m.View(), "unexpected token: boom")
}

func TestModel_CatalogFailure(t *testing.T) {
	backend := &fakeBackend{infoErr: errors.New("connection refused")}
	m := mounted(t, backend, false)

	view := m.View()
	assert.Contains(t, view, "Persistence units unavailable: connection refused")
	assert.Contains(t, view, "[r] check again")

	backend.infoErr = nil
	m = press(t, m, "r")
	assert.Empty(t, m.snap.CatalogError)
	assert.Equal(t, "default", m.snap.Unit)
}

func TestColumns(t *testing.T) {
	cols := columns(console.Snapshot{
		Cols: []string{"id", "description"},
		Rows: [][]string{{"1", fmt.Sprintf("%040d", 0)}},
	})
	require.Len(t, cols, 2)
	assert.Equal(t, 4, cols[0].Width)
	assert.Equal(t, maxColWidth, cols[1].Width)
}
