package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// URLsScraped counts URLs submitted to the scraper
	URLsScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricetrawl_urls_scraped_total",
		Help: "Number of URLs submitted to the scraper",
	})

	// ItemsExtracted counts extracted items across all batches
	ItemsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricetrawl_items_extracted_total",
		Help: "Number of items extracted across all batches",
	})

	// ScrapeErrors counts scrape errors by kind
	ScrapeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricetrawl_scrape_errors_total",
		Help: "Number of scrape errors by kind",
	}, []string{"kind"})

	// Batches counts processed scrape batches
	Batches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricetrawl_batches_total",
		Help: "Number of scrape batches processed",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency per method and path
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
