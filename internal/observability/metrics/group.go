package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GroupSagaTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_saga_total",
			Help: "Total number of group creation sagas by terminal state",
		},
		[]string{"state"},
	)

	GroupSagaCompensationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "group_saga_compensation_failures_total",
			Help: "Total number of compensating group deletes that failed",
		},
	)

	GroupSagaDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "group_saga_duration_seconds",
			Help:    "Duration of group creation sagas in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GroupMembersAddedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_members_added_total",
			Help: "Total number of add-member calls by result",
		},
		[]string{"result"},
	)

	GroupProjectionSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "group_projection_groups",
			Help:    "Number of groups returned per projection",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	OrphanGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orphan_groups",
			Help: "Number of groups with no members at the last audit",
		},
	)
)
