package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the OTP counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	generatedTotal        prometheus.Counter
	validationsTotal      *prometheus.CounterVec
	deliveryFailuresTotal prometheus.Counter
	storeErrorsTotal      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		generatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "otp_generated_total",
			Help: "Total number of codes generated and stored.",
		}),
		validationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_validations_total",
			Help: "Total number of validations, by outcome.",
		}, []string{"outcome"}), // success, not_found, mismatch, expired
		deliveryFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "otp_delivery_failures_total",
			Help: "Total number of codes whose delivery failed.",
		}),
		storeErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_store_errors_total",
			Help: "Total number of record store failures, by operation.",
		}, []string{"op"}),
	}
}

func (m *Metrics) generated() {
	if m != nil {
		m.generatedTotal.Inc()
	}
}

func (m *Metrics) validated(outcome Outcome) {
	if m != nil {
		m.validationsTotal.WithLabelValues(string(outcome)).Inc()
	}
}

func (m *Metrics) deliveryFailed() {
	if m != nil {
		m.deliveryFailuresTotal.Inc()
	}
}

func (m *Metrics) storeError(op string) {
	if m != nil {
		m.storeErrorsTotal.WithLabelValues(op).Inc()
	}
}
