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

	// MessagesTotal tracks total messages persisted.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages persisted",
		},
		[]string{"role"},
	)

	// ChatsTotal tracks total chats created.
	ChatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_total",
			Help: "Total chats created",
		},
	)

	// ReplyDuration tracks reply-generation latency.
	ReplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reply_generation_duration_seconds",
			Help:    "Reply generation duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// ReplyTokensTotal tracks LLM tokens processed during reply generation.
	ReplyTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// UploadsTotal tracks total file uploads.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Total file uploads",
		},
		[]string{"status"},
	)

	// UploadBytesTotal tracks total uploaded bytes.
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "file_upload_bytes_total",
			Help: "Total uploaded bytes",
		},
	)

	// ReactionsTotal tracks message reaction toggles.
	ReactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_reactions_total",
			Help: "Total message reaction toggles",
		},
		[]string{"action", "active"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordReply records metrics for one reply generation.
func RecordReply(model, status string, duration float64, tokensIn, tokensOut int) {
	ReplyDuration.WithLabelValues(model, status).Observe(duration)
	ReplyTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	ReplyTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
