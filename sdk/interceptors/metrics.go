package interceptors

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts completed calls and their latency by method and status.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tabler_api",
				Name:      "requests_total",
				Help:      "Total number of completed requests by method and status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tabler_api",
				Name:      "request_duration_seconds",
				Help:      "Request latency histogram",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

func (m *Metrics) AfterResponse(data InterceptorData) (InterceptorData, error) {
	method := data.Request.Method
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(data.Response.StatusCode)).Inc()
	if !data.StartedAt.IsZero() {
		m.RequestDuration.WithLabelValues(method).Observe(time.Since(data.StartedAt).Seconds())
	}
	return data, nil
}
