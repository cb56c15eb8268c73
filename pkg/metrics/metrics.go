// Package metrics exposes prometheus collectors for liftviz.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftviz_frames_total",
			Help: "Total number of animation frames solved",
		},
		[]string{"lift"},
	)

	SolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftviz_solve_duration_seconds",
			Help:    "Time to compose one kinematics snapshot",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 8),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftviz_active_sessions",
			Help: "Number of live animation sessions",
		},
	)

	SkeletonReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftviz_skeleton_reloads_total",
			Help: "Total number of skeleton definitions reloaded from disk",
		},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftviz_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	DroppedClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftviz_hub_dropped_clients_total",
			Help: "Websocket stream subscribers dropped for falling behind",
		},
	)
)
