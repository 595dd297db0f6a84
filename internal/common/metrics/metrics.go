// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Total number of REST calls made to the portal backend",
		},
		[]string{"endpoint", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "Duration of REST calls to the portal backend in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_wizard_transitions_total",
			Help: "Wizard step transitions by direction and result",
		},
		[]string{"flow", "direction", "result"},
	)

	WizardSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_wizard_submissions_total",
			Help: "Wizard submissions by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	FileRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_file_rejections_total",
			Help: "Files rejected before encoding, by reason",
		},
		[]string{"reason"},
	)

	EncodesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_file_encodes_in_flight",
			Help: "Number of file encodes currently running",
		},
	)
)
