// Package metrics holds the Prometheus collectors of the catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcomes
const (
	OutcomeInserted  = "inserted"
	OutcomeUpdated   = "updated"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

var (
	// ScenesProcessed counts ingested scenes by target table and outcome
	ScenesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_catalog_scenes_processed_total",
			Help: "Scenes processed by the reconciliation engine",
		},
		[]string{"table", "outcome"},
	)

	// ScenesRemoved counts rows dropped by cleanup
	ScenesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_catalog_scenes_removed_total",
			Help: "Catalog rows removed because the archive is gone",
		},
		[]string{"table"},
	)

	// ScenesMoved counts relocations by outcome
	ScenesMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_catalog_scenes_moved_total",
			Help: "Archive relocations",
		},
		[]string{"outcome"},
	)

	// JobDuration observes scheduled job runs
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scene_catalog_job_duration_seconds",
			Help:    "Duration of sweep and ingest jobs",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"status"},
	)

	// Exports counts shapefile exports by status
	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_catalog_exports_total",
			Help: "Shapefile exports",
		},
		[]string{"status"},
	)
)
