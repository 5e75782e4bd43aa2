package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/rodopt/internal/logging"
	"github.com/smazurov/rodopt/internal/report"
	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/spf13/cobra"
)

// CreateRunsCmd creates the runs command.
func CreateRunsCmd() *cobra.Command {
	var journalFile string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded optimization runs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("journal")

			if _, err := os.Stat(journalFile); err != nil {
				logger.Error("Run journal not found", "path", journalFile, "error", err)
				os.Exit(1)
			}

			journal, err := runstore.New(journalFile)
			if err != nil {
				logger.Error("Failed to open run journal", "path", journalFile, "error", err)
				os.Exit(1)
			}
			defer journal.Close()

			runs, err := journal.List(limit)
			if err != nil {
				logger.Error("Failed to list runs", "error", err)
				os.Exit(1)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RunsTable(runs))
		},
	}

	cmd.Flags().StringVarP(&journalFile, "journal", "j", "rodopt.db", "SQLite run journal")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show, newest first")

	return cmd
}
