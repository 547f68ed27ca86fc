package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the server.
type Metrics struct {
	registry *prometheus.Registry

	PageRenders     *prometheus.CounterVec
	ChatTurns       prometheus.Counter
	ChatFailures    prometheus.Counter
	PaletteRequests *prometheus.CounterVec
	Commits         prometheus.Counter
	Uploads         *prometheus.CounterVec
}

// NewMetrics creates and registers the server metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		PageRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tienditas",
			Name:      "page_renders_total",
			Help:      "Storefront pages rendered, by store and template.",
		}, []string{"store", "template"}),
		ChatTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tienditas",
			Name:      "chat_turns_total",
			Help:      "Chat turns accepted for streaming.",
		}),
		ChatFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tienditas",
			Name:      "chat_failures_total",
			Help:      "Chat turns that ended in the fallback message.",
		}),
		PaletteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tienditas",
			Name:      "palette_requests_total",
			Help:      "AI palette derivations, by outcome.",
		}, []string{"outcome"}),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tienditas",
			Name:      "commits_total",
			Help:      "Admin commits of the draft collection.",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tienditas",
			Name:      "media_uploads_total",
			Help:      "Media uploads, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PageRenders,
		m.ChatTurns,
		m.ChatFailures,
		m.PaletteRequests,
		m.Commits,
		m.Uploads,
	)
	return m
}

// Handler returns the /metrics scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
