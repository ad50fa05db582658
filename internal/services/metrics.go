package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records API request counts and latencies.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the request collectors and registers them with reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stemhub",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method, resource group and status code.",
		}, []string{"method", "group", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stemhub",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by method and resource group.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "group"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

// observe records one request. Status 0 means the request never got a response.
func (m *Metrics) observe(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}

	group := endpointGroup(path)
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}

	m.requests.WithLabelValues(method, group, code).Inc()
	m.duration.WithLabelValues(method, group).Observe(elapsed.Seconds())
}

// endpointGroup keeps label cardinality bounded by using only the first path segment.
func endpointGroup(path string) string {
	path = strings.TrimLeft(path, "/")
	if group, _, _ := strings.Cut(path, "/"); group != "" {
		return group
	}
	return "root"
}
