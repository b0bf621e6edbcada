// Package metrics exposes the service's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartevent"

// Registry is the registry every collector in this package is registered on.
var Registry = prometheus.NewRegistry()

// AppInfo exposes the build version as a label; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information",
	},
	[]string{"version"},
)

// RegistrationsTotal counts registration and cancellation outcomes.
// outcome is "created", "cancelled" or the failure reason code.
var RegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registration attempts by outcome",
	},
	[]string{"op", "outcome"},
)

// EventsTotal counts event mutations by operation and outcome.
var EventsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Event create/update/delete attempts by outcome",
	},
	[]string{"op", "outcome"},
)

// NotificationsTotal counts published and consumed notification messages.
var NotificationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification messages by direction and outcome",
	},
	[]string{"direction", "outcome"},
)

// Init registers the Go runtime and process collectors and records the version.
func Init(version string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
