// Package report renders history and run journal tables for the terminal.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/smazurov/rodopt/internal/analysis"
	"github.com/smazurov/rodopt/internal/history"
	"github.com/smazurov/rodopt/internal/runstore"
)

// OptimalMarker flags the best row or the rows on the Pareto front.
const OptimalMarker = "*"

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	optimalStyle    = cellStyle.Foreground(lipgloss.Color("46")).Bold(true)
	infeasibleStyle = cellStyle.Foreground(lipgloss.Color("243"))
	borderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// HistoryOptions selects what HistoryTable shows.
type HistoryOptions struct {
	// Columns are header indices to show; nil shows every column.
	Columns []int
	// FeasibilityColumn is rendered as Yes/No instead of the raw value; -1 for none.
	FeasibilityColumn int
	// OptimalOnly hides rows that are neither best nor Pareto-optimal.
	OptimalOnly bool
}

// HistoryTable renders snapshot rows with their row number. Rows are
// numbered from 1 and optimal rows carry OptimalMarker.
func HistoryTable(snap *history.Snapshot, res *analysis.Result, opts HistoryOptions) string {
	if snap.Len() == 0 {
		return "No evaluations yet."
	}

	cols := opts.Columns
	if cols == nil {
		cols = make([]int, len(snap.Header))
		for i := range cols {
			cols[i] = i
		}
	}

	headers := []string{"#"}
	for _, c := range cols {
		headers = append(headers, snap.Header[c])
	}

	feasible := func(i int) bool {
		return res != nil && i < len(res.Feasible) && res.Feasible[i]
	}
	optimal := func(i int) bool {
		return res != nil && res.IsOptimal(i)
	}

	rows := [][]string{}
	rowIndex := []int{}
	for i, record := range snap.Rows {
		if opts.OptimalOnly && !optimal(i) {
			continue
		}
		label := strconv.Itoa(i + 1)
		if optimal(i) {
			label = OptimalMarker + label
		}
		line := []string{label}
		for _, c := range cols {
			value := record[c]
			if c == opts.FeasibilityColumn {
				value = yesNo(feasible(i))
			}
			line = append(line, value)
		}
		rows = append(rows, line)
		rowIndex = append(rowIndex, i)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(rowIndex) {
				return cellStyle
			}
			switch i := rowIndex[row]; {
			case optimal(i):
				return optimalStyle
			case res != nil && !feasible(i):
				return infeasibleStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// Summary describes an analysis in one line.
func Summary(snap *history.Snapshot, res *analysis.Result) string {
	parts := []string{fmt.Sprintf("%d evaluations", snap.Len())}
	if snap != nil && snap.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d malformed lines skipped", snap.Skipped))
	}
	if res == nil {
		return strings.Join(parts, ", ")
	}
	parts = append(parts, fmt.Sprintf("%d feasible", res.FeasibleCount))
	switch {
	case res.Best != nil:
		parts = append(parts, fmt.Sprintf("best is #%d", *res.Best+1))
	case len(res.Pareto) > 0:
		parts = append(parts, fmt.Sprintf("%d on the Pareto front", len(res.Pareto)))
	default:
		parts = append(parts, "no optimum yet")
	}
	return strings.Join(parts, ", ")
}

// RunsTable renders recorded runs, newest first as given.
func RunsTable(runs []runstore.Run) string {
	if len(runs) == 0 {
		return "No runs recorded."
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		stopped, duration := "running", ""
		if r.StoppedAt != nil {
			stopped = r.StopReason
			active := r.StoppedAt.Sub(r.StartedAt) - time.Duration(r.PausedFor*float64(time.Second))
			duration = active.Round(time.Second).String()
		}
		exit := ""
		if r.ExitCode != nil {
			exit = strconv.Itoa(*r.ExitCode)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.StudyName,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			stopped,
			exit,
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Feasible),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "Study", "Started", "Active", "Status", "Exit", "Rows", "Feasible").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
