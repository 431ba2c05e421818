// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatsTotal tracks total conversations created.
	ChatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_total",
			Help: "Total conversations created",
		},
	)

	// ChatMessagesTotal tracks total chat messages sent.
	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages sent",
		},
	)

	// DocumentUploadsTotal tracks document uploads by workflow kind, slot,
	// and outcome.
	DocumentUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_uploads_total",
			Help: "Total verification document uploads",
		},
		[]string{"kind", "slot", "status"},
	)

	// DocumentUploadDuration tracks document upload duration.
	DocumentUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_upload_duration_seconds",
			Help:    "Verification document upload duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind", "status"},
	)

	// VerificationSubmissionsTotal tracks final workflow submissions.
	VerificationSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_submissions_total",
			Help: "Total verification workflow submissions",
		},
		[]string{"kind", "status"},
	)

	// WorkflowsActive tracks verification workflows in progress.
	WorkflowsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "verification_workflows_active",
			Help: "Verification workflows currently in progress",
		},
		[]string{"kind"},
	)

	// NATSStreamMessages tracks messages in the NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordUpload records metrics for a document upload attempt.
func RecordUpload(kind, slot, status string, duration float64) {
	DocumentUploadsTotal.WithLabelValues(kind, slot, status).Inc()
	DocumentUploadDuration.WithLabelValues(kind, status).Observe(duration)
}
