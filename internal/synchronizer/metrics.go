package synchronizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ehr_sync_runs_total",
		Help: "Finished synchronization runs by source and status",
	}, []string{"source", "status"})

	runsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ehr_sync_runs_active",
		Help: "Synchronization runs currently in progress",
	}, []string{"source"})

	resourcesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ehr_sync_resources_total",
		Help: "Resources processed by source, type and outcome",
	}, []string{"source", "type", "outcome"}) // outcome: created, merged, skipped, failed

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ehr_sync_stage_duration_seconds",
		Help:    "Duration of one type stage of a run, by final state",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"source", "type", "state"})

	practitionerCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ehr_sync_practitioner_cache_total",
		Help: "Practitioner read-through cache lookups by result",
	}, []string{"result"}) // result: hit, miss, error
)

func observeStage(source string, r *TypeResult, d time.Duration) {
	kind := string(r.Type)
	stageDuration.WithLabelValues(source, kind, string(r.State)).Observe(d.Seconds())
	resourcesTotal.WithLabelValues(source, kind, "created").Add(float64(r.Created))
	resourcesTotal.WithLabelValues(source, kind, "merged").Add(float64(r.Merged))
	resourcesTotal.WithLabelValues(source, kind, "skipped").Add(float64(r.Skipped))
	resourcesTotal.WithLabelValues(source, kind, "failed").Add(float64(r.Failed))
}
