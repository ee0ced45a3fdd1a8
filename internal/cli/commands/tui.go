package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/queryconsole/internal/console"
	"github.com/leapstack-labs/queryconsole/internal/jsonrpc"
	"github.com/leapstack-labs/queryconsole/internal/tui"
	"github.com/spf13/cobra"
)

// TUIOptions holds options for the tui command.
type TUIOptions struct {
	Remote string
}

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	opts := &TUIOptions{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the query console in the terminal",
		Long: `Open the query console as a full-screen terminal application.

By default the console runs against the configured persistence units. With
--remote it talks to a running "queryconsole ui" over JSON-RPC instead.`,
		Example: `  queryconsole tui
  queryconsole tui --remote http://localhost:8765`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Remote, "remote", "", "Base URL of a running console server")

	return cmd
}

func runTUI(cmd *cobra.Command, opts *TUIOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	var backend console.Backend
	var allow bool
	if opts.Remote != "" {
		client := jsonrpc.NewClient(opts.Remote, nil)
		var err error
		if allow, err = client.AllowQueries(ctx); err != nil {
			return fmt.Errorf("failed to reach %s: %w", client.Endpoint(), err)
		}
		backend = client
	} else {
		b, err := cc.OpenBackend(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		backend = console.Local(b.Service)
		allow = b.Service.AllowQueries(ctx)
	}

	session := console.SessionFromMetadata(map[string]string{
		console.MetadataAllowQueries: strconv.FormatBool(allow),
	})
	panel := console.NewPanel(backend, session, console.Options{
		PageSize: cc.Cfg.Console.PageSize,
		Logger:   cc.Logger,
	})
	return tui.Run(ctx, panel)
}
