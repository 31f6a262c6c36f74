package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_sessions_created_total",
			Help: "Total number of labeling sessions created",
		},
	)

	ScoresRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scoring_scores_recorded_total",
			Help: "Total number of score changes recorded",
		},
	)

	ScoresSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_scores_saved_total",
			Help: "Total number of exportable entries written, by save mode and kind",
		},
		[]string{"mode", "kind"},
	)

	EmptySaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_empty_saves_total",
			Help: "Save requests that had nothing to save",
		},
		[]string{"mode"},
	)

	Exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_exports_total",
			Help: "Export snapshots by status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SessionsCreated,
			ScoresRecorded,
			ScoresSaved,
			EmptySaves,
			Exports,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
