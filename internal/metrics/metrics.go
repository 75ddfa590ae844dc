// Package metrics registers the Prometheus metrics exposed by the
// generator. Library operations (expansion, rendering) update them as they
// run; the serve command mounts the /metrics handler that publishes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsExpanded counts committed intents labelled by provider and
	// expansion strategy ("cartesian", "fallback").
	IntentsExpanded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_intents_expanded_total",
			Help: "Total model intents expanded into routing entries.",
		},
		[]string{"provider", "strategy"},
	)

	// ExpansionErrors counts intents rejected before any entry was emitted.
	ExpansionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_expansion_errors_total",
			Help: "Total intents rejected by expansion validation.",
		},
		[]string{"provider"},
	)

	// EntriesGenerated counts emitted routing entries by provider.
	EntriesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_entries_generated_total",
			Help: "Total concrete routing entries appended to the registry.",
		},
		[]string{"provider"},
	)

	// DocumentsRendered counts rendered configuration documents by outcome
	// ("success", "error").
	DocumentsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_documents_rendered_total",
			Help: "Total configuration documents rendered.",
		},
		[]string{"status"},
	)

	// RenderDuration observes document render latency in seconds.
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routegen_render_duration_seconds",
			Help:    "Configuration document render duration in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	// DocumentRequests counts serve-mode document fetches by status code.
	DocumentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_document_requests_total",
			Help: "Total HTTP requests for the rendered document.",
		},
		[]string{"status"},
	)

	// Snapshots counts document snapshots written to the history store,
	// labelled by backend ("sqlite", "postgres").
	Snapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegen_history_snapshots_total",
			Help: "Total rendered documents saved to the history store.",
		},
		[]string{"backend"},
	)
)
