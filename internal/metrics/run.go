// Package metrics provides Prometheus metrics for supervised runs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// States reported by the run state gauge.
var states = []string{"stopped", "running", "paused"}

var (
	runState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rodopt",
		Subsystem: "run",
		Name:      "state",
		Help:      "1 for the current run state, 0 otherwise",
	}, []string{"state"})

	runElapsed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rodopt",
		Subsystem: "run",
		Name:      "elapsed_seconds",
		Help:      "Running time of the current session excluding pauses",
	})

	runStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rodopt",
		Subsystem: "run",
		Name:      "starts_total",
		Help:      "Number of optimizer processes started",
	})

	runStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rodopt",
		Subsystem: "run",
		Name:      "stops_total",
		Help:      "Number of runs that ended, by reason",
	}, []string{"reason"})

	outputLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rodopt",
		Subsystem: "process",
		Name:      "output_lines_total",
		Help:      "Lines written by the optimizer process",
	}, []string{"source"})

	historyRows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rodopt",
		Subsystem: "history",
		Name:      "rows",
		Help:      "Rows in the latest history snapshot",
	})

	historyFeasible = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rodopt",
		Subsystem: "history",
		Name:      "feasible_rows",
		Help:      "Feasible rows in the latest history snapshot",
	})

	historyOptimal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rodopt",
		Subsystem: "history",
		Name:      "optimal_rows",
		Help:      "Rows marked as best point or Pareto optimal",
	})

	// Local cache for API access.
	cache   RunMetrics
	cacheMu sync.RWMutex
)

// RunMetrics holds current metric values.
type RunMetrics struct {
	State          string  `json:"state"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Starts         int     `json:"starts"`
	Rows           int     `json:"rows"`
	FeasibleRows   int     `json:"feasible_rows"`
	OptimalRows    int     `json:"optimal_rows"`
}

func init() {
	SetRunState("stopped")
}

// SetRunState marks state as the current run state.
func SetRunState(state string) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		runState.WithLabelValues(s).Set(v)
	}
	update(func(m *RunMetrics) { m.State = state })
}

// SetElapsed sets the running time of the current session.
func SetElapsed(seconds float64) {
	runElapsed.Set(seconds)
	update(func(m *RunMetrics) { m.ElapsedSeconds = seconds })
}

// RecordStart counts a started run and resets the history gauges.
func RecordStart() {
	runStarts.Inc()
	SetHistory(0, 0, 0)
	SetElapsed(0)
	update(func(m *RunMetrics) { m.Starts++ })
}

// RecordStop counts a finished run.
func RecordStop(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	runStops.WithLabelValues(reason).Inc()
}

// RecordOutputLine counts one line of optimizer output.
func RecordOutputLine(source string) {
	outputLines.WithLabelValues(source).Inc()
}

// SetHistory sets the history gauges.
func SetHistory(rows, feasible, optimal int) {
	historyRows.Set(float64(rows))
	historyFeasible.Set(float64(feasible))
	historyOptimal.Set(float64(optimal))
	update(func(m *RunMetrics) {
		m.Rows = rows
		m.FeasibleRows = feasible
		m.OptimalRows = optimal
	})
}

// Get returns a copy of the current metric values.
func Get() RunMetrics {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cache
}

func update(apply func(*RunMetrics)) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	apply(&cache)
}
