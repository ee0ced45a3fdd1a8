package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/queryconsole/internal/devservice"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Unit   string
	Page   int
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [QUERY]",
		Short: "Run a query against a persistence unit",
		Long: `Run an HQL-style query against a persistence unit and print one page
of the result.

Queries use entity names: "from Order o where o.total > 100". Only selection
statements are accepted.

When invoked without a query and with a terminal on stdin, enters an
interactive console.`,
		Example: `  # First page of all orders
  queryconsole query "from Order"

  # Third page, as JSON
  queryconsole query "from Order o order by o.id" --page 3 --format json

  # Another persistence unit
  queryconsole query "from AuditLog" --unit audit

  # Interactive console
  queryconsole query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Unit, "unit", "u", "", "Persistence unit (default: the first one)")
	cmd.Flags().IntVarP(&opts.Page, "page", "p", 1, "Page number, starting at 1")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the query from a file")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	var query string
	interactive := false
	switch {
	case len(args) > 0:
		query = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		query = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		query = string(content)
	default:
		interactive = true
	}

	b, err := cc.OpenBackend(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	if interactive {
		return runQueryREPL(cmd, cc, b, opts)
	}
	return executeAndRender(ctx, cmd.OutOrStdout(), b.Service, cc.Cfg.Console.PageSize, query, opts)
}

// executeAndRender runs one page of a query and prints it.
func executeAndRender(ctx context.Context, w io.Writer, svc *devservice.Service, pageSize int, query string, opts *QueryOptions) error {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if query == "" {
		return errors.New("no query given")
	}

	unit := opts.Unit
	if unit == "" {
		info, err := svc.GetInfo(ctx)
		if err != nil {
			return err
		}
		if len(info.PersistenceUnits) == 0 {
			return errors.New("no persistence units are configured")
		}
		unit = info.PersistenceUnits[0].Name
	}

	ds := svc.ExecuteQuery(ctx, core.QueryRequest{
		PersistenceUnit: unit,
		Query:           query,
		PageNumber:      opts.Page,
		PageSize:        pageSize,
	})
	if ds.Failed() {
		return fmt.Errorf("query failed: %s", ds.Error)
	}
	return renderPage(w, pageFromDataSet(ds, opts.Page, pageSize), ds, opts.Format)
}
