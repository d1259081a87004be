package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// pushCmd represents the push command.
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the local table to the backend now",
	Long: `Write the current table to the backend immediately, bypassing the
async sync pipeline. Useful after the sheet was edited by hand or a
broker outage left it behind.

Example:
  backstage-cli push`,
	Run: runPush,
}

// pullCmd represents the pull command.
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the backend table and report status",
	Long: `Pull the backend table, replacing the local snapshot, and print the
resulting sync status.

Example:
  backstage-cli pull`,
	Run: runPull,
}

func runPush(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	sess, result := openSession(ctx)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	exitOnError(sess.Push(ctx), "push failed")

	status := sess.Status()
	fmt.Printf("Pushed table version %d (%d rows)\n", status.Version, status.Rows)
}

func runPull(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	sess, result := openSession(ctx)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	// Opening the session already pulled the table; this is where the
	// result gets reported.
	status := sess.Status()
	fmt.Printf("Table version %d, %d rows\n", status.Version, status.Rows)
	if status.Degraded {
		fmt.Println("WARNING: backend unreachable, this is the last local snapshot")
		if status.LastError != "" {
			fmt.Printf("  last error: %s\n", status.LastError)
		}
	}
}
