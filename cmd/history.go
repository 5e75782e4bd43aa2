package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smazurov/rodopt/internal/analysis"
	"github.com/smazurov/rodopt/internal/history"
	"github.com/smazurov/rodopt/internal/logging"
	"github.com/smazurov/rodopt/internal/report"
	"github.com/smazurov/rodopt/internal/rundir"
	"github.com/smazurov/rodopt/internal/study"
	"github.com/smazurov/rodopt/internal/supervisor"
	"github.com/spf13/cobra"
)

// CreateHistoryCmd creates the history command.
func CreateHistoryCmd() *cobra.Command {
	var runDir string
	var fileName string
	var allColumns bool
	var optimalOnly bool

	cmd := &cobra.Command{
		Use:   "history <study>",
		Short: "Show the evaluated designs of the latest run of a study",
		Long: `Reads the history file of the most recent run directory of a study and marks the ` +
			`best feasible design, or the Pareto front for studies with several objectives.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("history")

			info, err := study.Load(args[0])
			if err != nil {
				logger.Error("Failed to read study", "error", err)
				os.Exit(1)
			}

			dir := runDir
			if dir == "" {
				var ok bool
				dir, ok = rundir.Resolve(info.WorkingDirectory, info.Name, time.Time{})
				if !ok {
					logger.Error("No run directory found", "working_directory", info.WorkingDirectory, "study", info.Name)
					os.Exit(1)
				}
			}

			path := filepath.Join(dir, fileName)
			snap, err := history.NewIngestor().Poll(path, time.Time{}, nil)
			if err != nil {
				logger.Error("Failed to read history", "path", path, "error", err)
				os.Exit(1)
			}

			layout := analysis.Layout{Dimension: info.Dimension, Objectives: info.ObjectiveCount()}
			opts := report.HistoryOptions{FeasibilityColumn: -1, OptimalOnly: optimalOnly}
			var res *analysis.Result
			if snap != nil {
				result, analyzeErr := analysis.Analyze(snap.Rows, layout)
				if analyzeErr != nil {
					logger.Warn("History does not match the study layout", "error", analyzeErr)
				}
				res = &result
				opts.FeasibilityColumn = len(snap.Header) - 1
				if !allColumns {
					opts.Columns = supervisor.VisibleColumns(snap.Header, layout, info.Constraints)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, path)
			fmt.Fprintln(out, report.HistoryTable(snap, res, opts))
			fmt.Fprintln(out, report.Summary(snap, res))
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "Run directory to read instead of the latest one")
	cmd.Flags().StringVarP(&fileName, "file", "f", history.DefaultFileName, "History file name inside the run directory")
	cmd.Flags().BoolVarP(&allColumns, "all-columns", "a", false, "Show input and output columns too")
	cmd.Flags().BoolVar(&optimalOnly, "optimal-only", false, "Only show the best design or the Pareto front")

	return cmd
}
