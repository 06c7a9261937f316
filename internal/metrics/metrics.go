package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiservice_http_requests_total",
			Help: "HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aiservice_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Ingestion
var (
	IngestJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiservice_ingest_jobs_total",
			Help: "Ingestion jobs by terminal status.",
		},
		[]string{"status"},
	)

	IngestChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aiservice_ingest_chunks_total",
			Help: "Chunks written to the vector index.",
		},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aiservice_ingest_duration_seconds",
			Help:    "End-to-end ingestion latency.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiservice_webhook_deliveries_total",
			Help: "Status webhook delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Answering
var (
	AnswerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiservice_answer_requests_total",
			Help: "Answer requests by outcome.",
		},
		[]string{"outcome"},
	)

	AnswerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aiservice_answer_duration_seconds",
			Help:    "End-to-end answer latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	RerankCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aiservice_rerank_candidates",
			Help:    "Candidates passed to the re-ranker.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	EmbedCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiservice_embed_cache_lookups_total",
			Help: "Query embedding cache lookups by result.",
		},
		[]string{"result"},
	)
)
