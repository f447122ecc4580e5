// Package metrics exposes Prometheus metrics for moderation actions, the
// HTTP API and the storage layer.
package metrics

import (
	"context"
	"strconv"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Moderation metrics
var (
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pancymod_moderation_actions_total",
		Help: "Total number of moderation actions recorded",
	}, []string{"action", "auto"})

	WarningPoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pancymod_warning_total_points",
		Help:    "Active points of a member right after a warning",
		Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20, 30, 50},
	})
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pancymod_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pancymod_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Runtime state
var (
	DatabaseConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pancymod_database_connected",
		Help: "Database connection state (1=connected, 0=disconnected)",
	})

	PendingWrites = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pancymod_database_pending_writes",
		Help: "Writes queued while the database is offline",
	})

	SetupSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pancymod_setup_sessions",
		Help: "Open punishment setup sessions",
	})

	Guilds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pancymod_guilds",
		Help: "Guilds the bot is in",
	})
)

// Recorder counts every moderation entry
type Recorder struct{}

func (Recorder) Record(_ context.Context, e moderation.Entry) {
	ActionsTotal.WithLabelValues(string(e.Action), strconv.FormatBool(e.Auto)).Inc()
	if e.Action == moderation.ActionWarn && !e.Auto && e.Points != nil {
		WarningPoints.Observe(float64(*e.Points))
	}
}
