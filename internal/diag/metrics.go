// Package diag exposes pipeline health: prometheus metrics and an
// optional debug HTTP endpoint. Nothing here is load-bearing for
// rendering correctness; it only observes.
package diag

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ptyglass",
		Subsystem: "render",
		Name:      "frames_total",
		Help:      "Total frames committed to the render target.",
	})

	renderDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ptyglass",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time spent building and committing one frame.",
		Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .032, .064},
	})

	budgetOverrunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ptyglass",
		Subsystem: "opqueue",
		Name:      "budget_overruns_total",
		Help:      "Drain passes that exceeded the frame budget and yielded.",
	})

	outputBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ptyglass",
		Subsystem: "transport",
		Name:      "output_bytes_total",
		Help:      "Terminal output bytes received from the transport.",
	})

	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ptyglass",
		Subsystem: "transport",
		Name:      "reconnects_total",
		Help:      "Transport reconnect attempts.",
	})
)

// ObserveRender records one committed frame and its build duration.
func ObserveRender(d time.Duration) {
	rendersTotal.Inc()
	renderDurationSeconds.Observe(d.Seconds())
}

// ObserveBudgetOverrun records an operation-queue yield.
func ObserveBudgetOverrun() {
	budgetOverrunsTotal.Inc()
}

// ObserveOutput records received terminal output.
func ObserveOutput(bytes int) {
	outputBytesTotal.Add(float64(bytes))
}

// ObserveReconnect records a transport reconnect attempt.
func ObserveReconnect() {
	reconnectsTotal.Inc()
}
