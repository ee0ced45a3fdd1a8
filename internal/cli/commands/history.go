package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Format string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed queries",
		Long: `Show the query log: every page the console requested, newest first,
with its result size, duration and error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.RecentQueries(opts.Limit)
			if err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), entries, opts.Format)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json")

	return cmd
}

func renderHistory(w io.Writer, entries []*core.QueryLogEntry, format string) error {
	switch format {
	case FormatJSON:
		if entries == nil {
			entries = []*core.QueryLogEntry{}
		}
		return renderJSON(w, entries)
	case FormatTable, "":
	default:
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No queries recorded yet.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Executed", "Unit", "Query", "Page", "Total", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Query", WidthMax: 60},
		{Name: "Error", WidthMax: 40},
		{Name: "Page", Align: text.AlignRight},
		{Name: "Total", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, e := range entries {
		total := fmt.Sprintf("%d", e.Total)
		if e.Error != "" {
			total = "-"
		}
		t.AppendRow(table.Row{
			e.ExecutedAt.Local().Format(time.DateTime),
			e.PersistenceUnit,
			e.Query,
			fmt.Sprintf("%d/%d", e.PageNumber, e.PageSize),
			total,
			(time.Duration(e.DurationMS) * time.Millisecond).String(),
			e.Error,
		})
	}
	t.Render()
	return nil
}
