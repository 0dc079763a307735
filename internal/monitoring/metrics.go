package monitoring

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/event"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	DatabaseCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongodb_commands_total",
			Help: "MongoDB commands by name and outcome",
		},
		[]string{"command", "outcome"},
	)
)

// Register adds the collectors to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{RequestsTotal, RequestDuration, DatabaseCommands} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// CommandMonitor counts driver commands. Attach it with
// options.Client().SetMonitor.
func CommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			DatabaseCommands.WithLabelValues(e.CommandName, "success").Inc()
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			DatabaseCommands.WithLabelValues(e.CommandName, "failure").Inc()
		},
	}
}
