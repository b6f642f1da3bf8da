package metrics

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

var (
	// ProductsCreated counts products successfully created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_created_total",
		Help:      "The total number of products created",
	})

	// ProductsUpdated counts products successfully updated.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_updated_total",
		Help:      "The total number of products updated",
	})

	// ProductsDeleted counts products successfully deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_deleted_total",
		Help:      "The total number of products deleted",
	})

	// EventsDropped counts events a slow subscriber missed.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "The total number of catalog events dropped because a subscriber was full",
	})

	// RequestCounter counts HTTP requests by method, route and status
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Middleware records RequestCounter and RequestDuration for every request.
// Paths are labelled with the mux route template so ids do not blow up
// label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		path := routeTemplate(r)
		status := strconv.Itoa(m.Code)
		RequestCounter.WithLabelValues(r.Method, path, status).Inc()
		RequestDuration.WithLabelValues(r.Method, path, status).Observe(m.Duration.Seconds())
	})
}

// Handler serves the default registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}
