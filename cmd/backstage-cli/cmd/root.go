// Package cmd provides the CLI commands for backstage-cli.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/backend"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/cli"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/config"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
)

var debug bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "backstage-cli",
	Short: "Manage the backstage finance table from the terminal",
	Long: `backstage-cli works the same table the server does: it imports
bank statements, prints the dashboard numbers and drives the sheet
sync without going through the HTTP API.

Configuration comes from the environment and an optional .env file,
exactly like the server. DATA_BACKEND picks where the table lives
(memory, sqlite or sheets).

Example:
  backstage-cli import extrato-marco.csv
  backstage-cli kpi --from 2024-01-01 --to 2024-03-31
  backstage-cli doctor`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()

		// Logs go to stderr so command output stays pipeable. The
		// session chatter is only interesting with --debug.
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		logCfg := applog.DefaultConfig()
		logCfg.Component = applog.ComponentApp
		logCfg.Level = level
		logCfg.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		applog.SetDefault(applog.New(logCfg))
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(kpiCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(doctorCmd)
}

// exitOnError logs and exits; fine for one-shot commands where nothing
// holds state worth unwinding.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// openSession builds the same backend and session the server runs on.
// Writes go through inline; the CLI never publishes to the broker.
func openSession(ctx context.Context) (*session.Session, *backend.BackendResult) {
	cfg := config.Load()
	exitOnError(cfg.Validate(), "invalid configuration")

	backendCfg, err := backend.FromAppConfig(cfg)
	exitOnError(err, "invalid backend configuration")

	result, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, backendCfg)
	exitOnError(err, "failed to build backend")

	opts := session.Options{
		Backend:        result.Backend,
		SheetID:        result.SheetID,
		ProbeTimeout:   cfg.ProbeTimeout,
		RefreshTimeout: cfg.RefreshTimeout,
	}
	if backendCfg.Type == backend.SheetsBackend {
		opts.Local = result.Local
	}

	sess, err := session.New(ctx, opts)
	exitOnError(err, "failed to open session")
	return sess, result
}
