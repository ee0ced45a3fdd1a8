// Package tui is the terminal frontend of the query console.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/queryconsole/internal/console"
)

type focus int

const (
	focusEntities focus = iota
	focusEditor
	focusGrid
)

const (
	sidebarWidth = 26
	maxColWidth  = 32
)

// opDoneMsg reports the end of a panel operation.
type opDoneMsg struct {
	err error
}

// Model is the bubbletea model wrapping a console.Panel.
type Model struct {
	ctx    context.Context
	panel  *console.Panel
	keys   keyMap
	help   help.Model
	styles styles

	editor textarea.Model
	grid   table.Model

	snap      console.Snapshot
	lastQuery string
	focus     focus
	cursor    int
	width     int
	height    int
	lastErr   error
}

// New creates the model. The panel is mounted by Init.
func New(ctx context.Context, panel *console.Panel) Model {
	st := defaultStyles()

	editor := textarea.New()
	editor.Placeholder = "from Entity e where ..."
	editor.ShowLineNumbers = false
	editor.SetHeight(3)

	grid := table.New(table.WithFocused(false), table.WithHeight(12))
	grid.SetStyles(st.table)

	return Model{
		ctx:    ctx,
		panel:  panel,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: st,
		editor: editor,
		grid:   grid,
		snap:   panel.Snapshot(),
	}
}

// Init mounts the panel.
func (m Model) Init() tea.Cmd {
	return m.op(m.panel.Mount)
}

func (m Model) op(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: fn(ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case opDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, console.ErrStale) {
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusEditor:
		m.editor, cmd = m.editor.Update(msg)
	case focusGrid:
		m.grid, cmd = m.grid.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Focus):
		m.cycleFocus()
		return m, nil
	case key.Matches(msg, m.keys.Run):
		if !m.snap.AllowQueries {
			return m, nil
		}
		text := m.editor.Value()
		return m, m.op(func(ctx context.Context) error { return m.panel.Submit(ctx, text) })
	case key.Matches(msg, m.keys.Reset):
		return m, m.op(m.panel.Reset)
	}

	if m.focus == focusEditor {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextUnit):
		if name, ok := m.nextUnit(); ok {
			return m, m.op(func(ctx context.Context) error { return m.panel.SelectUnit(ctx, name) })
		}
		return m, nil
	case key.Matches(msg, m.keys.CheckAgain):
		return m, m.op(m.panel.Reload)
	case key.Matches(msg, m.keys.Allow):
		if m.snap.AllowQueries {
			return m, nil
		}
		return m, m.op(m.panel.EnableQueries)
	case key.Matches(msg, m.keys.NextPage):
		if !m.snap.ShowNext {
			return m, nil
		}
		return m, m.op(m.panel.NextPage)
	case key.Matches(msg, m.keys.PrevPage):
		if !m.snap.ShowPrev {
			return m, nil
		}
		return m, m.op(m.panel.PreviousPage)
	}

	switch m.focus {
	case focusEntities:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.snap.Entities)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.snap.Entities) > 0 {
				idx := m.cursor
				return m, m.op(func(ctx context.Context) error { return m.panel.SelectEntity(ctx, idx) })
			}
		}
	case focusGrid:
		var cmd tea.Cmd
		m.grid, cmd = m.grid.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) nextUnit() (string, bool) {
	units := m.snap.Units
	if len(units) == 0 {
		return "", false
	}
	for i, u := range units {
		if u.Selected {
			return units[(i+1)%len(units)].Name, true
		}
	}
	return units[0].Name, true
}

func (m *Model) cycleFocus() {
	order := []focus{focusEntities, focusGrid}
	if m.snap.AllowQueries {
		order = []focus{focusEntities, focusEditor, focusGrid}
	}
	next := order[0]
	for i, f := range order {
		if f == m.focus {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.setFocus(next)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.editor.Blur()
	m.grid.Blur()
	switch f {
	case focusEditor:
		m.editor.Focus()
	case focusGrid:
		m.grid.Focus()
	}
}

// refresh pulls a new snapshot from the panel into the widgets.
func (m *Model) refresh() {
	m.snap = m.panel.Snapshot()

	if m.snap.Entity >= 0 {
		m.cursor = m.snap.Entity
	}
	if m.cursor >= len(m.snap.Entities) {
		m.cursor = max(len(m.snap.Entities)-1, 0)
	}
	if m.snap.Query != m.lastQuery {
		m.editor.SetValue(m.snap.Query)
		m.lastQuery = m.snap.Query
	}
	if m.focus == focusEditor && !m.snap.AllowQueries {
		m.setFocus(focusEntities)
	}

	// rows first: the table renders rows against the current columns
	m.grid.SetRows(nil)
	m.grid.SetColumns(columns(m.snap))
	rows := make([]table.Row, 0, len(m.snap.Rows))
	for _, r := range m.snap.Rows {
		rows = append(rows, table.Row(r))
	}
	m.grid.SetRows(rows)
	m.grid.GotoTop()
}

func columns(s console.Snapshot) []table.Column {
	cols := make([]table.Column, len(s.Cols))
	for i, name := range s.Cols {
		w := lipgloss.Width(name)
		for _, r := range s.Rows {
			if i < len(r) {
				w = max(w, lipgloss.Width(r[i]))
			}
		}
		cols[i] = table.Column{Title: name, Width: min(max(w, 4), maxColWidth)}
	}
	return cols
}

func (m *Model) layout() {
	mainWidth := max(m.width-sidebarWidth-6, 20)
	m.editor.SetWidth(mainWidth - 2)
	m.grid.SetWidth(mainWidth)
	m.help.Width = m.width
	// header, editor, pager, notices and help around the grid
	m.grid.SetHeight(max(m.height-16, 3))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.snap.CatalogError != "" {
		b.WriteString(m.styles.pane.Render(
			m.styles.errorNotice.Render("Persistence units unavailable: "+m.snap.CatalogError) +
				"\n" + m.styles.muted.Render("[r] check again")))
		b.WriteString("\n" + m.help.View(m.keys))
		return b.String()
	}

	sidebar := m.paneStyle(focusEntities).Width(sidebarWidth).Render(m.entitiesView())
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.paneStyle(focusEditor).Render(m.editorView()),
		m.paneStyle(focusGrid).Render(m.gridView()),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main))
	b.WriteString("\n")
	b.WriteString(m.noticeView())
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) paneStyle(f focus) lipgloss.Style {
	if m.focus == f {
		return m.styles.paneFocused
	}
	return m.styles.pane
}

func (m Model) headerView() string {
	parts := []string{m.styles.header.Render("queryconsole")}
	for _, u := range m.snap.Units {
		if u.Selected {
			parts = append(parts, m.styles.unitSelected.Render(u.Name))
		} else {
			parts = append(parts, m.styles.unit.Render(u.Name))
		}
	}
	if m.snap.Busy {
		parts = append(parts, m.styles.muted.Render("running…"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) entitiesView() string {
	if len(m.snap.Entities) == 0 {
		return m.styles.muted.Render("No managed entities")
	}
	lines := make([]string, 0, len(m.snap.Entities))
	for i, e := range m.snap.Entities {
		prefix := "  "
		if i == m.cursor {
			prefix = m.styles.entityCursor.Render("> ")
		}
		name := m.styles.entity.Render(e.Name)
		if e.Selected {
			name = m.styles.entityActive.Render(e.Name)
		}
		lines = append(lines, prefix+name)
	}
	return strings.Join(lines, "\n")
}

func (m Model) editorView() string {
	if !m.snap.AllowQueries {
		return m.styles.query.Render(m.snap.Query) + "\n" +
			m.styles.muted.Render("Free-form queries are disabled. [a] allow queries")
	}
	return m.editor.View()
}

func (m Model) gridView() string {
	if !m.snap.HasResult {
		return m.styles.muted.Render("No results")
	}
	pager := fmt.Sprintf("Page %d of %d (%d elements)", m.snap.Page, m.snap.PageCount, m.snap.Total)
	if m.snap.ShowPrev {
		pager = "[p] ← " + pager
	}
	if m.snap.ShowNext {
		pager += " → [n]"
	}
	return m.grid.View() + "\n" + m.styles.pager.Render(pager)
}

func (m Model) noticeView() string {
	var qe *console.QueryError
	if m.lastErr != nil && !errors.As(m.lastErr, &qe) {
		return m.styles.errorNotice.Render(m.lastErr.Error()) + "\n"
	}
	if len(m.snap.Notices) == 0 {
		return ""
	}
	n := m.snap.Notices[len(m.snap.Notices)-1]
	style := m.styles.muted
	switch n.Kind {
	case console.NoticeError:
		style = m.styles.errorNotice
	case console.NoticeSuccess:
		style = m.styles.okNotice
	}
	return style.Render(n.Message) + "\n"
}

// Run starts the terminal console and blocks until the user quits or ctx ends.
func Run(ctx context.Context, panel *console.Panel) error {
	p := tea.NewProgram(New(ctx, panel), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal console failed: %w", err)
	}
	return nil
}
