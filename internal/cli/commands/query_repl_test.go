package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/leapstack-labs/queryconsole/internal/console"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replHarness struct {
	t      *testing.T
	repl   *repl
	out    *bytes.Buffer
	errOut *bytes.Buffer
	b      *Backend
}

func newREPLHarness(t *testing.T, allow bool) *replHarness {
	t.Helper()
	cfg := testConfig(t)
	cfg.Console.AllowQueries = allow
	b := openTestBackend(t, cfg)

	panel := console.NewPanel(console.Local(b.Service), console.NewSession(b.Service.AllowQueries(context.Background())), console.Options{
		PageSize: cfg.Console.PageSize,
	})
	h := &replHarness{t: t, out: new(bytes.Buffer), errOut: new(bytes.Buffer), b: b}
	h.repl = newREPL(panel, h.out, h.errOut, FormatTable)
	return h
}

// send feeds one line and returns what was printed, clearing the buffers.
func (h *replHarness) send(line string) (out, errOut string, quit, pending bool) {
	h.t.Helper()
	quit, pending = h.repl.handleLine(context.Background(), line)
	out, errOut = h.out.String(), h.errOut.String()
	h.out.Reset()
	h.errOut.Reset()
	return out, errOut, quit, pending
}

func TestREPL_BrowseAndPage(t *testing.T) {
	h := newREPLHarness(t, false)

	h.repl.start(context.Background(), "")
	assert.Contains(t, h.out.String(), "[default] from Customer")
	assert.Contains(t, h.out.String(), "Page 1 of 1 (3 elements)")
	h.out.Reset()

	out, _, _, _ := h.send(".entity Order")
	assert.Contains(t, out, "[default] from Order")
	assert.Contains(t, out, "Page 1 of 3 (30 elements)")

	out, _, _, _ = h.send(".next")
	assert.Contains(t, out, "Page 2 of 3 (30 elements)")

	out, _, _, _ = h.send(".next")
	assert.Contains(t, out, "Page 3 of 3 (30 elements)")

	_, errOut, _, _ := h.send(".next")
	assert.Contains(t, errOut, "Already on the last page.")

	out, _, _, _ = h.send(".prev")
	assert.Contains(t, out, "Page 2 of 3 (30 elements)")

	out, _, _, _ = h.send(".reset")
	assert.Contains(t, out, "Page 1 of 3 (30 elements)")

	_, errOut, _, _ = h.send(".prev")
	assert.Contains(t, errOut, "Already on the first page.")

	out, _, _, _ = h.send(".unit audit")
	assert.Contains(t, out, "[audit] from AuditLog")
	assert.Contains(t, out, "(0 rows)")

	out, _, _, _ = h.send(".units")
	assert.Contains(t, out, "  default")
	assert.Contains(t, out, "* audit")

	_, errOut, _, _ = h.send(".unit nope")
	assert.Contains(t, errOut, "unknown persistence unit: nope")
}

func TestREPL_QueriesNeedPermission(t *testing.T) {
	h := newREPLHarness(t, false)
	h.repl.start(context.Background(), "")

	_, errOut, _, _ := h.send("from Order o where o.total > 250;")
	assert.Contains(t, errOut, "use .allow")

	out, _, _, _ := h.send(".allow")
	assert.Contains(t, out, "Query execution enabled.")
	assert.True(t, h.b.Service.AllowQueries(context.Background()), "the permission is stored by the backend")

	_, _, quit, pending := h.send("from Order o")
	assert.False(t, quit)
	assert.True(t, pending, "queries continue until a semicolon")

	out, _, _, pending = h.send("where o.total > 250;")
	assert.False(t, pending)
	assert.Contains(t, out, "[default] from Order o where o.total > 250")
	assert.Contains(t, out, "Page 1 of 1 (5 elements)")

	_, errOut, _, _ = h.send("delete from Order;")
	assert.Contains(t, errOut, "Only selection statements are allowed")

	out, _, _, _ = h.send(".page")
	assert.Contains(t, out, "Page 1 of 1 (5 elements)", "a failed query keeps the previous page")

	out, _, _, _ = h.send(".allow")
	assert.Contains(t, out, "already enabled")
}

func TestREPL_NamedQueries(t *testing.T) {
	h := newREPLHarness(t, true)
	h.repl.start(context.Background(), "")

	out, _, _, _ := h.send(".named")
	assert.Contains(t, out, "Order.big")
	assert.Contains(t, out, "from Order o where o.total > 100")

	out, _, _, _ = h.send(".named Order.big")
	assert.Contains(t, out, "Page 1 of 2 (20 elements)")

	_, errOut, _, _ := h.send(".named missing")
	assert.Contains(t, errOut, `no named query "missing"`)
}

func TestREPL_StartOnUnit(t *testing.T) {
	h := newREPLHarness(t, false)
	h.repl.start(context.Background(), "audit")
	assert.Contains(t, h.out.String(), "[audit] from AuditLog")
}

func TestREPL_Commands(t *testing.T) {
	h := newREPLHarness(t, false)
	h.repl.start(context.Background(), "")

	tests := []struct {
		line     string
		wantOut  string
		wantErr  string
		wantQuit bool
	}{
		{line: ".help", wantOut: ".entity <name>"},
		{line: ".entities", wantOut: "Customer"},
		{line: ".bogus", wantErr: "Unknown command: .bogus"},
		{line: "   ", wantOut: ""},
		{line: ".quit", wantQuit: true},
		{line: ".EXIT", wantQuit: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out, errOut, quit, _ := h.send(tt.line)
			assert.Equal(t, tt.wantQuit, quit)
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, errOut, tt.wantErr)
			}
		})
	}
}

func TestREPL_Completer(t *testing.T) {
	h := newREPLHarness(t, false)
	h.repl.start(context.Background(), "")

	c := h.repl.completer()
	require.NotNil(t, c)

	line := []rune(".entity O")
	candidates, _ := c.Do(line, len(line))
	var got []string
	for _, cand := range candidates {
		got = append(got, strings.TrimSpace(string(cand)))
	}
	assert.Equal(t, []string{"rder"}, got, "only Order completes the entity name")
}
