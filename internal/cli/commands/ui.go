package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/queryconsole/internal/cli/config"
	"github.com/leapstack-labs/queryconsole/internal/metrics"
	"github.com/leapstack-labs/queryconsole/internal/ui"
	"github.com/spf13/cobra"
)

// UIOptions holds options for the ui command. The values reach the command
// through the configuration, where explicitly set flags take precedence.
type UIOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the web query console",
		Long: `Start a local web server providing the query console.

The server provides:
- Persistence unit and entity browsing with paged results
- Free-form queries once query execution is allowed
- A JSON-RPC endpoint at /json-rpc for remote consoles
- Prometheus metrics at /metrics

When watching, edits to the configuration file reload the persistence
units and refresh every open console.`,
		Example: `  # Start UI on default port
  queryconsole ui

  # Start on custom port
  queryconsole ui --port 3000

  # Start without auto-opening browser
  queryconsole ui --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", config.DefaultPort, "Port to serve on")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload when the configuration file changes")

	return cmd
}

func runUI(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg
	ctx := cmd.Context()

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	b, err := cc.OpenBackend(ctx, m)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	secret, err := sessionSecret(cfg)
	if err != nil {
		return err
	}

	serverCfg := ui.Config{
		Service:       b.Service,
		Metrics:       m,
		Port:          cfg.UI.Port,
		SessionSecret: secret,
		PageSize:      cfg.Console.PageSize,
		Watch:         cfg.UI.Watch && cfg.ConfigFile != "",
		OnChange: func(ctx context.Context) error {
			return cc.ReloadCatalog(ctx, b.Service)
		},
		Logger: cc.Logger,
	}
	if cfg.ConfigFile != "" {
		serverCfg.WatchFiles = []string{cfg.ConfigFile}
	}
	server := ui.NewServer(serverCfg)

	url := fmt.Sprintf("http://localhost:%d", cfg.UI.Port)
	if cfg.UI.AutoOpen {
		go openBrowser(url)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Starting query console on %s\n", url)
	if cfg.ConfigFile != "" {
		_, _ = fmt.Fprintf(out, "Configuration: %s\n", cfg.ConfigFile)
	}
	_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")

	return server.Serve(ctx)
}

// sessionSecret returns the configured cookie secret or a random one.
func sessionSecret(cfg *config.Config) (string, error) {
	if cfg.UI.SessionSecret != "" {
		return cfg.UI.SessionSecret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
