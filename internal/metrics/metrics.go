// Package metrics provides Prometheus instrumentation for scoring actions and the HTTP surface.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraudguard"

var (
	// PredictionsTotal counts scored transactions by decision.
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total scored transactions by decision.",
		},
		[]string{"decision"},
	)

	// FraudProbability observes the classifier output of every analysis.
	FraudProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fraud_probability",
		Help:      "Distribution of predicted fraud probabilities.",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	// RecordsClearedTotal counts full wipes of the prediction table.
	RecordsClearedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_cleared_total",
		Help:      "Total full wipes of the prediction history.",
	})

	// Records tracks the row count seen by the last dashboard refresh.
	Records = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "records",
		Help: "Stored predictions as of the last refresh.",
	})
	// FraudRate tracks the fraud rate seen by the last dashboard refresh.
	FraudRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "fraud_rate",
		Help: "Fraud decisions over stored predictions as of the last refresh.",
	})
	// AverageProbability tracks the mean risk score seen by the last dashboard refresh.
	AverageProbability = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "average_probability",
		Help: "Mean predicted probability as of the last refresh.",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		PredictionsTotal,
		FraudProbability,
		RecordsClearedTotal,
		Records,
		FraudRate,
		AverageProbability,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ObservePrediction records one scored transaction.
func ObservePrediction(fraud bool, probability float64) {
	PredictionsTotal.WithLabelValues(strconv.FormatBool(fraud)).Inc()
	FraudProbability.Observe(probability)
}

// SetDashboard publishes the latest refresh numbers.
func SetDashboard(total int64, rate, avg float64) {
	Records.Set(float64(total))
	FraudRate.Set(rate)
	AverageProbability.Set(avg)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for the /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
