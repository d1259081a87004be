package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a bank statement into the table",
	Long: `Import a bank statement (CSV, XLSX or legacy XLS) into the table.

Rows that cannot be read are reported with their line number and left
out; everything else lands in the table in file order and the table is
persisted and synced like any other append.

Example:
  backstage-cli import extrato-marco.csv`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func runImport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	sess, result := openSession(ctx)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	path := args[0]
	f, err := os.Open(path)
	exitOnError(err, "failed to open statement")
	defer f.Close()

	res, err := sess.Import(ctx, filepath.Base(path), f)
	exitOnError(err, "import failed")

	status := sess.Status()
	fmt.Printf("Imported %d rows (table version %d, %d rows total)\n",
		res.Accepted, status.Version, status.Rows)

	if len(res.Rejected) > 0 {
		fmt.Printf("\n%d rows rejected:\n", len(res.Rejected))
		for _, rej := range res.Rejected {
			fmt.Printf("  line %d: %s\n", rej.Line, rej.Reason)
		}
	}
}
