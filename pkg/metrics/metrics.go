package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	ExtractorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailhunt",
			Name:      "extractor_runs_total",
			Help:      "Optional extractor runs by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	Hunts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailhunt",
			Name:      "hunts_total",
			Help:      "Hunts by resulting error kind, empty on success.",
		},
		[]string{"kind"},
	)

	HuntDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mailhunt",
			Name:      "hunt_duration_seconds",
			Help:      "Duration of a whole hunt in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	AccountsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mailhunt",
			Name:      "accounts_resolved_total",
			Help:      "Accounts returned by the people lookup.",
		},
	)
)
