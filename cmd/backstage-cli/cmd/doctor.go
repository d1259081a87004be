package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/amqp"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/backend"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/config"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/storage"
)

// doctorCmd represents the doctor command.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, storage and backend connectivity",
	Long: `Run every connectivity check the server would hit on startup and
report them one by one: configuration, backend credentials and reach,
local storage and the AMQP broker.

Exits non-zero when any check fails.

Example:
  backstage-cli doctor`,
	Run: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	failed := false

	check := func(name string, err error) bool {
		if err != nil {
			failed = true
			fmt.Printf("FAIL  %-24s %v\n", name, err)
			return false
		}
		fmt.Printf("ok    %s\n", name)
		return true
	}

	cfg := config.Load()
	check("configuration", cfg.Validate())

	backendCfg, err := backend.FromAppConfig(cfg)
	if !check("backend selection", err) {
		os.Exit(1)
	}

	result, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, backendCfg)
	if check("backend init ("+backendCfg.Type.String()+")", err) {
		if result.Cleanup != nil {
			defer result.Cleanup()
		}

		probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
		check("backend probe", result.Backend.Probe(probeCtx, result.SheetID))
		cancel()

		if result.Local != nil {
			check("local storage", result.Local.Ping(ctx))

			meta, err := result.Local.SnapshotInfo(ctx)
			switch {
			case err == nil:
				fmt.Printf("      snapshot version %d, saved %s\n",
					meta.Version, meta.SavedAt.Format(time.RFC3339))
			case errors.Is(err, storage.ErrNoSnapshot):
				fmt.Println("      no snapshot yet")
			default:
				check("snapshot state", err)
			}
		}
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if check("AMQP broker", err) {
			client.Close()
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed")
}
