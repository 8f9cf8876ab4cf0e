package forecasting

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for forecastProducts.
const (
	outcomeOK            = "ok"
	outcomeInvalidInput  = "invalid_input"
	outcomeUpstreamError = "upstream_error"
	outcomeCancelled     = "cancelled"
	outcomeUnknown       = "unknown"
)

var (
	forecastDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retail",
		Subsystem: "forecast",
		Name:      "duration_seconds",
		Help:      "Time spent producing forecasts, including data fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	forecastProducts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retail",
		Subsystem: "forecast",
		Name:      "products_total",
		Help:      "Products forecast, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(forecastDuration, forecastProducts)
}

func observeDuration(kind string, started time.Time) {
	forecastDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
