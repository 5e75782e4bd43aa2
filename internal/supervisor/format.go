package supervisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/smazurov/rodopt/internal/analysis"
)

// FormatElapsed renders d as "1h 2m 3s", "2m 5s" or "7s".
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// VisibleColumns returns the header indices worth showing: the objective
// columns, plus the feasibility column when the study has constraints.
// An "improvement" column is never shown. Row numbers are not part of the
// header and are always shown.
func VisibleColumns(header []string, layout analysis.Layout, constraints int) []int {
	cols := []int{}
	width := len(header)
	if width == 0 {
		return cols
	}

	improvement := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "improvement") {
			improvement = i
			break
		}
	}

	seen := make(map[int]bool)
	add := func(i int) {
		if i < 0 || i >= width || i == improvement || seen[i] {
			return
		}
		seen[i] = true
		cols = append(cols, i)
	}

	for _, c := range layout.ObjectiveColumns() {
		add(c)
	}
	if constraints > 0 {
		add(width - 1)
	}
	return cols
}
