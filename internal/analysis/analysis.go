// Package analysis classifies history rows as feasible or infeasible and
// ranks the feasible ones: the best point for a single objective, the
// Pareto-optimal set under minimization for several objectives.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrLayout is returned when the column layout does not fit the rows.
var ErrLayout = errors.New("invalid column layout")

// Layout describes where objectives live in a history row.
// Inputs occupy [0, Dimension), objectives [Dimension, Dimension+Objectives),
// and the feasibility flag is always the last column.
type Layout struct {
	Dimension  int
	Objectives int
}

// ObjectiveColumns returns the indices of the objective columns.
func (l Layout) ObjectiveColumns() []int {
	cols := make([]int, l.Objectives)
	for i := range cols {
		cols[i] = l.Dimension + i
	}
	return cols
}

// Validate checks the layout against a row width.
func (l Layout) Validate(width int) error {
	switch {
	case l.Dimension < 0:
		return fmt.Errorf("%w: negative dimension %d", ErrLayout, l.Dimension)
	case l.Objectives < 1:
		return fmt.Errorf("%w: need at least one objective, got %d", ErrLayout, l.Objectives)
	case l.Dimension+l.Objectives > width-1:
		return fmt.Errorf("%w: %d inputs + %d objectives do not fit %d columns before the feasibility flag",
			ErrLayout, l.Dimension, l.Objectives, width)
	}
	return nil
}

// Result is the feasibility summary of a batch of rows. Indices refer to
// positions in the analyzed row slice.
type Result struct {
	// Feasible[i] reports whether row i carries the feasibility flag 1.0.
	Feasible []bool `json:"feasible"`

	// Best is the feasible row with the lowest objective (single objective
	// only), or nil.
	Best *int `json:"best_index"`

	// Pareto holds the non-dominated feasible rows in ascending order
	// (two or more objectives only).
	Pareto []int `json:"pareto_indices"`

	FeasibleCount int `json:"feasible_count"`
}

// IsOptimal reports whether row i is the best point or on the Pareto front.
func (r Result) IsOptimal(i int) bool {
	if r.Best != nil && *r.Best == i {
		return true
	}
	for _, p := range r.Pareto {
		if p == i {
			return true
		}
	}
	return false
}

// IsFeasible reports whether a feasibility field marks a feasible sample:
// it must parse as a number exactly equal to 1.0.
func IsFeasible(field string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	return err == nil && v == 1.0
}

// Analyze computes the feasibility summary of rows. Feasibility depends
// only on the last field of each row and is reported even when the layout
// does not fit the rows; ranking then stays empty and the layout error is
// returned. Rows too short for the layout are never ranked.
func Analyze(rows [][]string, layout Layout) (Result, error) {
	res := Result{
		Feasible: make([]bool, len(rows)),
		Pareto:   []int{},
	}
	for i, row := range rows {
		if len(row) > 0 && IsFeasible(row[len(row)-1]) {
			res.Feasible[i] = true
			res.FeasibleCount++
		}
	}

	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	if len(rows) == 0 && layout.Objectives < 1 {
		return res, fmt.Errorf("%w: need at least one objective, got %d", ErrLayout, layout.Objectives)
	}
	if len(rows) == 0 {
		return res, nil
	}
	if err := layout.Validate(width); err != nil {
		return res, err
	}

	cols := layout.ObjectiveColumns()
	var candidates []point
	for i, row := range rows {
		if !res.Feasible[i] || len(row) <= layout.Dimension+layout.Objectives {
			continue
		}
		values, ok := objectiveValues(row, cols)
		if !ok {
			continue
		}
		candidates = append(candidates, point{index: i, values: values})
	}

	if layout.Objectives == 1 {
		res.Best = best(candidates)
		return res, nil
	}
	res.Pareto = paretoFront(candidates)
	return res, nil
}

// point is a feasible row projected onto its objective values.
type point struct {
	index  int
	values []float64
}

func objectiveValues(row []string, cols []int) ([]float64, bool) {
	values := make([]float64, len(cols))
	for k, c := range cols {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		values[k] = v
	}
	return values, true
}

// best returns the index of the lowest single objective; ties keep the
// earliest row.
func best(points []point) *int {
	if len(points) == 0 {
		return nil
	}
	lowest := points[0]
	for _, p := range points[1:] {
		if p.values[0] < lowest.values[0] {
			lowest = p
		}
	}
	idx := lowest.index
	return &idx
}
