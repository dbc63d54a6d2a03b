// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ivr_attendant"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsEnded   *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Menu metrics
	MenusEntered   prometheus.Counter
	MenuLoadErrors prometheus.Counter
	GreetingPlays  prometheus.Counter

	// Input metrics
	DigitsReceived prometheus.Counter
	DigitsInvalid  prometheus.Counter
	InputTimeouts  prometheus.Counter
	RetryCapHits   prometheus.Counter

	// Dispatch metrics
	DispatchResults *prometheus.CounterVec

	// Error metrics
	ConfigErrors         *prometheus.CounterVec
	CollaboratorFailures *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of IVR call sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active IVR call sessions",
		}),
		SessionsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Total number of sessions ended",
		}, []string{"outcome"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of IVR sessions in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),

		// Menu metrics
		MenusEntered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menus_entered_total",
			Help:      "Total number of menu entries, submenus included",
		}),
		MenuLoadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_load_errors_total",
			Help:      "Total number of failed menu definition loads",
		}),
		GreetingPlays: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "greeting_plays_total",
			Help:      "Total number of greeting playbacks requested",
		}),

		// Input metrics
		DigitsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digits_received_total",
			Help:      "Total number of DTMF digits received",
		}),
		DigitsInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digits_invalid_total",
			Help:      "Total number of digits with no matching menu option",
		}),
		InputTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_timeouts_total",
			Help:      "Total number of digit-collection timeouts",
		}),
		RetryCapHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_cap_hits_total",
			Help:      "Total number of times maxRetries was exceeded and voicemail was forced",
		}),

		// Dispatch metrics
		DispatchResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_results_total",
			Help:      "Total number of dispatched menu actions",
		}, []string{"kind"}),

		// Error metrics
		ConfigErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_errors_total",
			Help:      "Total number of runtime configuration errors",
		}, []string{"code"}),
		CollaboratorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Total number of failed telephony collaborator requests",
		}, []string{"op"}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a new session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session ending with the given outcome.
func (m *Metrics) RecordSessionEnd(outcome string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionsEnded.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordMenuEntered records a menu (or submenu) entry.
func (m *Metrics) RecordMenuEntered() {
	m.MenusEntered.Inc()
}

// RecordMenuLoadError records a failed menu definition load.
func (m *Metrics) RecordMenuLoadError() {
	m.MenuLoadErrors.Inc()
}

// RecordGreetingPlay records a greeting playback request.
func (m *Metrics) RecordGreetingPlay() {
	m.GreetingPlays.Inc()
}

// RecordDigit records a received DTMF digit; matched says whether it mapped
// to a menu option.
func (m *Metrics) RecordDigit(matched bool) {
	m.DigitsReceived.Inc()
	if !matched {
		m.DigitsInvalid.Inc()
	}
}

// RecordTimeout records a digit-collection timeout.
func (m *Metrics) RecordTimeout() {
	m.InputTimeouts.Inc()
}

// RecordRetryCapHit records maxRetries being exceeded.
func (m *Metrics) RecordRetryCapHit() {
	m.RetryCapHits.Inc()
}

// RecordDispatch records a dispatched action result kind.
func (m *Metrics) RecordDispatch(kind string) {
	m.DispatchResults.WithLabelValues(kind).Inc()
}

// RecordConfigError records a runtime configuration error.
func (m *Metrics) RecordConfigError(code string) {
	m.ConfigErrors.WithLabelValues(code).Inc()
}

// RecordCollaboratorFailure records a failed telephony request.
func (m *Metrics) RecordCollaboratorFailure(op string) {
	m.CollaboratorFailures.WithLabelValues(op).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
