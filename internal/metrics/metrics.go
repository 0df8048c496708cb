package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flibooks_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flibooks_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	IngestedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flibooks_ingested_documents_total",
		Help: "Documents submitted to the search backend by ingestion, by outcome",
	}, []string{"status"})

	IngestedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flibooks_ingested_index_files_total",
		Help: "Index files processed by ingestion, by outcome",
	}, []string{"status"})

	BooksServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flibooks_books_served_total",
		Help: "Books extracted from containers, by download kind",
	}, []string{"kind"})

	BackendQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flibooks_backend_queries_total",
		Help: "Queries sent to the search backend, by intent",
	}, []string{"intent"})
)
