package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Message metrics
	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_messages_sent_total",
		Help: "Total number of user messages submitted",
	}, []string{"status"})

	// Rate limit metrics
	rateLimitDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_rate_limit_denied_total",
		Help: "Total number of checks denied by the rate limiter",
	}, []string{"action"})

	// Retrieval metrics
	retrievalHits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tutor_retrieval_hits",
		Help:    "Number of knowledge base hits per query",
		Buckets: []float64{0, 1, 2, 3},
	})

	// Model metrics
	modelRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutor_model_request_duration_seconds",
		Help:    "Duration of model API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "status"})

	streamChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutor_stream_chunks_total",
		Help: "Total number of streamed response chunks delivered",
	})

	// Storage metrics
	storageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"operation", "status"})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageSent records a processed user message
func (m *Metrics) RecordMessageSent(status string) {
	messagesSent.WithLabelValues(status).Inc()
}

// RecordRateLimitDenied records a limiter denial
func (m *Metrics) RecordRateLimitDenied(action string) {
	rateLimitDenied.WithLabelValues(action).Inc()
}

// RecordRetrievalHits records the hit count of one retrieval call
func (m *Metrics) RecordRetrievalHits(count int) {
	retrievalHits.Observe(float64(count))
}

// RecordModelRequest records a model API request
func (m *Metrics) RecordModelRequest(model, status string, duration time.Duration) {
	modelRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordStreamChunk records one delivered chunk
func (m *Metrics) RecordStreamChunk() {
	streamChunks.Inc()
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(operation, status string) {
	storageOperations.WithLabelValues(operation, status).Inc()
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
