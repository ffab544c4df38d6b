// Package metrics exposes Prometheus instrumentation for the schedule
// editor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenSessions tracks how many editor sessions are currently open.
	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tallyplan",
		Subsystem: "editor",
		Name:      "open_sessions",
		Help:      "Number of currently open schedule editor sessions",
	})

	// Saves counts schedule save attempts by outcome.
	// Labels: result (success, failure, noop)
	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tallyplan",
		Subsystem: "editor",
		Name:      "saves_total",
		Help:      "Total schedule save attempts by outcome",
	}, []string{"result"})

	// RefreshesDropped counts background refreshes that were ignored to
	// protect unsaved edits.
	RefreshesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tallyplan",
		Subsystem: "editor",
		Name:      "refreshes_dropped_total",
		Help:      "Background schedule refreshes dropped by the no-clobber guards",
	})
)
