package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's collectors. A nil *Metrics records nothing.
type Metrics struct {
	TurnsTotal          *prometheus.CounterVec
	IntentsTotal        *prometheus.CounterVec
	DialogsTotal        *prometheus.CounterVec
	CollaboratorLatency *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tablebot_turns_total",
			Help: "Turns processed by activity type and outcome",
		}, []string{"activity", "outcome"}),

		IntentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tablebot_intents_total",
			Help: "Recognized intents after the confidence threshold",
		}, []string{"intent"}),

		DialogsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tablebot_reservation_dialogs_total",
			Help: "Reservation dialogs finished by outcome",
		}, []string{"outcome"}),

		CollaboratorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tablebot_collaborator_latency_seconds",
			Help:    "Latency of recognizer, answerer and state store calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"collaborator"}),
	}
}

func (m *Metrics) Turn(activity, outcome string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(activity, outcome).Inc()
}

func (m *Metrics) Intent(name string) {
	if m == nil {
		return
	}
	m.IntentsTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) Dialog(outcome string) {
	if m == nil {
		return
	}
	m.DialogsTotal.WithLabelValues(outcome).Inc()
}

// Observe records the time since start for a collaborator call.
func (m *Metrics) Observe(collaborator string, start time.Time) {
	if m == nil {
		return
	}
	m.CollaboratorLatency.WithLabelValues(collaborator).Observe(time.Since(start).Seconds())
}
