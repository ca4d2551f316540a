package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Event path ──────────────────────────────────────────────────────────────

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "consumer",
		Name:      "events_consumed_total",
		Help:      "Total events applied successfully, labelled by kind.",
	}, []string{"kind"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "consumer",
		Name:      "events_dropped_total",
		Help:      "Total events dropped (malformed, unknown kind, or failed).",
	}, []string{"reason"})

	// ─── Query path ──────────────────────────────────────────────────────────────

	StatisticsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "api",
		Name:      "statistics_requests_total",
		Help:      "Total statistics requests, labelled by endpoint and status code.",
	}, []string{"endpoint", "code"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "api",
		Name:      "rate_limited_total",
		Help:      "Total requests rejected by the rate limiter.",
	})

	// ─── Entity counts (refreshed periodically) ──────────────────────────────────

	ProjectsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "analytics",
		Name:      "projects_total",
		Help:      "Projects currently stored.",
	})

	TasksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "analytics",
		Name:      "tasks_total",
		Help:      "Tasks currently stored.",
	})

	ParticipantsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "analytics",
		Name:      "participants_total",
		Help:      "Distinct participants across all projects.",
	})
)
