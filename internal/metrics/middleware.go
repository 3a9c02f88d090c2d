package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// noGroup labels requests whose route carries no {group} parameter.
const noGroup = "-"

var (
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geocatalog",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Catalog API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"method", "route", "group", "status"},
	)

	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geocatalog",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of catalog API requests",
		},
		[]string{"method", "route", "group", "status"},
	)

	apiInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "geocatalog",
			Subsystem: "api",
			Name:      "requests_in_flight",
			Help:      "Catalog API requests currently being served",
		},
	)
)

func init() {
	prometheus.MustRegister(apiRequestDuration, apiRequestsTotal, apiInFlight)
}

// Middleware records catalog API request duration and count per route and group.
// Group names come from configuration, so the label set stays bounded.
// Scrapes of the exposition endpoint are not recorded.
func Middleware(skip ...string) func(next http.Handler) http.Handler {
	skipped := make(map[string]struct{}, len(skip)+1)
	skipped["/metrics"] = struct{}{}
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skipped[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			apiInFlight.Inc()
			defer apiInFlight.Dec()

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route, group := routeLabels(r)
			status := strconv.Itoa(sw.status)
			apiRequestDuration.WithLabelValues(r.Method, route, group, status).Observe(time.Since(start).Seconds())
			apiRequestsTotal.WithLabelValues(r.Method, route, group, status).Inc()
		})
	}
}

// routeLabels returns the chi route pattern and the {group} parameter.
// Unmatched requests collapse into a single "unmatched" route.
func routeLabels(r *http.Request) (route, group string) {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return "unmatched", noGroup
	}
	route = rc.RoutePattern()
	if route == "" {
		route = "unmatched"
	}
	group = rc.URLParam("group")
	if group == "" {
		group = noGroup
	}
	return route, group
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}

// Flush lets streamed responses pass through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
