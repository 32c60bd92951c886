// Package metrics exposes prediction counters and histograms to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraudscope"

// OutcomeSuccess labels predictions that produced a score.
const OutcomeSuccess = "success"

// PrometheusRecorder implements usecase.Recorder on Prometheus collectors.
type PrometheusRecorder struct {
	predictions     *prometheus.CounterVec
	scores          prometheus.Histogram
	duration        *prometheus.HistogramVec
	publishFailures prometheus.Counter
}

// NewPrometheusRecorder registers the prediction collectors on reg. It panics
// if they are already registered there.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Prediction requests by transport and outcome.",
			},
			[]string{"transport", "outcome"},
		),
		scores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fraud_score",
				Help:      "Distribution of returned fraud scores.",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Latency of successful predictions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"transport"},
		),
		publishFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_publish_failures_total",
				Help:      "Prediction events that could not be published.",
			},
		),
	}
}

func (r *PrometheusRecorder) PredictionScored(source string, score int, elapsed time.Duration) {
	r.predictions.WithLabelValues(source, OutcomeSuccess).Inc()
	r.scores.Observe(float64(score))
	r.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) PredictionFailed(source, outcome string) {
	r.predictions.WithLabelValues(source, outcome).Inc()
}

func (r *PrometheusRecorder) EventPublishFailed() {
	r.publishFailures.Inc()
}
