package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/queryconsole/internal/console"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "queryconsole> "
	replContPrompt = "         ...> "
)

func runQueryREPL(cmd *cobra.Command, cc *CommandContext, b *Backend, opts *QueryOptions) error {
	ctx := cmd.Context()

	panel := console.NewPanel(console.Local(b.Service), console.NewSession(b.Service.AllowQueries(ctx)), console.Options{
		PageSize: cc.Cfg.Console.PageSize,
		Logger:   cc.Logger,
	})
	r := newREPL(panel, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Format)

	historyFile := filepath.Join(filepath.Dir(cc.Cfg.StatePath), "query_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    r.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(r.out, "Query console (state: %s)\n", cc.Cfg.StatePath)
	_, _ = fmt.Fprintln(r.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	r.start(ctx, opts.Unit)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		quit, pending := r.handleLine(ctx, line)
		if quit {
			break
		}
		if pending {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
	return nil
}

// repl drives a console panel from text lines. Queries span lines until
// a terminating semicolon; dot-commands map onto panel operations.
type repl struct {
	panel  *console.Panel
	out    io.Writer
	errOut io.Writer
	format string
	buf    strings.Builder
}

func newREPL(panel *console.Panel, out, errOut io.Writer, format string) *repl {
	return &repl{panel: panel, out: out, errOut: errOut, format: format}
}

// start mounts the panel and optionally switches to the requested unit.
func (r *repl) start(ctx context.Context, unit string) {
	if err := r.panel.Mount(ctx); err != nil {
		r.fail(err)
		_, _ = fmt.Fprintln(r.errOut, "Use .reload to check again.")
		return
	}
	if unit != "" {
		if err := r.panel.SelectUnit(ctx, unit); err != nil {
			r.fail(err)
		}
	}
	r.show()
}

// handleLine processes one input line. It reports whether the REPL should
// exit and whether a query is still being accumulated.
func (r *repl) handleLine(ctx context.Context, line string) (quit, pending bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, r.buf.Len() > 0
	}

	if r.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return r.dot(ctx, line), false
	}

	r.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		r.buf.WriteString(" ")
		return false, true
	}

	query := strings.TrimSuffix(r.buf.String(), ";")
	r.buf.Reset()
	r.run(r.panel.Submit(ctx, query))
	return false, false
}

// dot runs a dot-command and reports whether it asks to quit.
func (r *repl) dot(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(r.out)
	case ".units":
		r.listUnits()
	case ".unit":
		if arg == "" {
			r.listUnits()
			break
		}
		r.run(r.panel.SelectUnit(ctx, arg))
	case ".entities":
		r.listEntities()
	case ".entity":
		if arg == "" {
			r.listEntities()
			break
		}
		r.run(r.panel.SelectEntityByName(ctx, arg))
	case ".named":
		r.named(ctx, arg)
	case ".next":
		if !r.panel.Snapshot().ShowNext {
			_, _ = fmt.Fprintln(r.errOut, "Already on the last page.")
			break
		}
		r.run(r.panel.NextPage(ctx))
	case ".prev":
		if !r.panel.Snapshot().ShowPrev {
			_, _ = fmt.Fprintln(r.errOut, "Already on the first page.")
			break
		}
		r.run(r.panel.PreviousPage(ctx))
	case ".page":
		r.show()
	case ".reset":
		r.run(r.panel.Reset(ctx))
	case ".reload":
		r.run(r.panel.Reload(ctx))
	case ".allow":
		if r.panel.Session().AllowQueries() {
			_, _ = fmt.Fprintln(r.out, "Query execution is already enabled.")
			break
		}
		if err := r.panel.EnableQueries(ctx); err != nil {
			r.fail(err)
			break
		}
		_, _ = fmt.Fprintln(r.out, "Query execution enabled.")
	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")
	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (r *repl) named(ctx context.Context, name string) {
	snap := r.panel.Snapshot()
	if name == "" {
		if len(snap.NamedQueries) == 0 {
			_, _ = fmt.Fprintln(r.out, "No named queries.")
		}
		for _, q := range snap.NamedQueries {
			_, _ = fmt.Fprintf(r.out, "  %-24s %s\n", q.Name, q.Query)
		}
		return
	}
	for _, q := range snap.NamedQueries {
		if q.Name == name {
			r.run(r.panel.Submit(ctx, q.Query))
			return
		}
	}
	_, _ = fmt.Fprintf(r.errOut, "Error: no named query %q\n", name)
}

// run reports the outcome of a panel operation and prints the page on success.
func (r *repl) run(err error) {
	if err != nil {
		r.fail(err)
		return
	}
	r.show()
}

func (r *repl) fail(err error) {
	switch {
	case errors.Is(err, console.ErrStale):
		return
	case errors.Is(err, console.ErrQueriesDisabled):
		_, _ = fmt.Fprintf(r.errOut, "Error: %v (use .allow)\n", err)
	default:
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
	}
}

func (r *repl) show() {
	snap := r.panel.Snapshot()
	if snap.Unit == "" {
		_, _ = fmt.Fprintln(r.out, "No persistence unit selected.")
		return
	}
	_, _ = fmt.Fprintf(r.out, "[%s] %s\n", snap.Unit, snap.Query)
	if !snap.HasResult {
		return
	}
	rp := resultPage{
		Cols:      snap.Cols,
		Rows:      snap.Rows,
		Page:      snap.Page,
		PageCount: snap.PageCount,
		Total:     snap.Total,
	}
	if err := renderPage(r.out, rp, nil, r.format); err != nil {
		r.fail(err)
	}
}

func (r *repl) listUnits() {
	snap := r.panel.Snapshot()
	if len(snap.Units) == 0 {
		_, _ = fmt.Fprintln(r.out, "No persistence units are configured.")
	}
	for _, u := range snap.Units {
		marker := " "
		if u.Selected {
			marker = "*"
		}
		_, _ = fmt.Fprintf(r.out, "%s %s\n", marker, u.Name)
	}
}

func (r *repl) listEntities() {
	snap := r.panel.Snapshot()
	if len(snap.Entities) == 0 {
		_, _ = fmt.Fprintln(r.out, "No managed entities.")
	}
	for _, e := range snap.Entities {
		marker := " "
		if e.Selected {
			marker = "*"
		}
		_, _ = fmt.Fprintf(r.out, "%s %-24s %s\n", marker, e.Name, e.TableName)
	}
}

// completer offers dot-commands, unit and entity names.
func (r *repl) completer() *readline.PrefixCompleter {
	units := func(string) []string {
		var names []string
		for _, u := range r.panel.Snapshot().Units {
			names = append(names, u.Name)
		}
		return names
	}
	entities := func(string) []string {
		var names []string
		for _, e := range r.panel.Snapshot().Entities {
			names = append(names, e.Name)
		}
		return names
	}
	named := func(string) []string {
		var names []string
		for _, q := range r.panel.Snapshot().NamedQueries {
			names = append(names, q.Name)
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("from", readline.PcItemDynamic(entities)),
		readline.PcItem(".help"),
		readline.PcItem(".units"),
		readline.PcItem(".unit", readline.PcItemDynamic(units)),
		readline.PcItem(".entities"),
		readline.PcItem(".entity", readline.PcItemDynamic(entities)),
		readline.PcItem(".named", readline.PcItemDynamic(named)),
		readline.PcItem(".next"),
		readline.PcItem(".prev"),
		readline.PcItem(".page"),
		readline.PcItem(".reset"),
		readline.PcItem(".reload"),
		readline.PcItem(".allow"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .units            List persistence units
  .unit <name>      Switch persistence unit
  .entities         List managed entities of the unit
  .entity <name>    Run the default query of an entity
  .named [name]     List named queries, or run one
  .next / .prev     Move through result pages
  .page             Show the current page again
  .reset            Restore the entity's default query
  .reload           Reload persistence units
  .allow            Enable free-form queries
  .clear            Clear the screen
  .quit / .exit     Exit the console

Tips:
  - Queries must end with a semicolon (;)
  - Queries use entity names: from Order o where o.total > 100;
  - Tab completion works for commands, units and entities
`
	_, _ = fmt.Fprintln(w, help)
}
