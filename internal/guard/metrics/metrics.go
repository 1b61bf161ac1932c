package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksTotal      *prometheus.CounterVec
	FailOpenTotal    *prometheus.CounterVec
	SignalDegraded   *prometheus.CounterVec
	RiskScore        prometheus.Histogram
	SuspiciousTotal  prometheus.Counter
	DecisionsAllowed prometheus.Counter
	DecisionsDenied  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nadawallet_guard_checks_total",
			Help: "Guard policy checks by check name and outcome",
		}, []string{"check", "outcome"}),
		FailOpenTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nadawallet_guard_fail_open_total",
			Help: "Checks that failed open because the backing store errored",
		}, []string{"check"}),
		SignalDegraded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nadawallet_guard_fraud_signal_degraded_total",
			Help: "Fraud signals silently skipped because their query errored",
		}, []string{"signal"}),
		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nadawallet_guard_risk_score",
			Help:    "Distribution of computed fraud risk scores",
			Buckets: []float64{0, 10, 20, 30, 45, 50, 60, 75, 90},
		}),
		SuspiciousTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nadawallet_guard_suspicious_total",
			Help: "Exchange requests flagged suspicious by fraud scoring",
		}),
		DecisionsAllowed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nadawallet_guard_decisions_allowed_total",
			Help: "Guard evaluations that allowed the exchange",
		}),
		DecisionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nadawallet_guard_decisions_denied_total",
			Help: "Guard evaluations that denied the exchange, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) RecordCheck(check string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.ChecksTotal.WithLabelValues(check, outcome).Inc()
}

func (m *Metrics) RecordFailOpen(check string) {
	m.FailOpenTotal.WithLabelValues(check).Inc()
}

func (m *Metrics) RecordSignalDegraded(signal string) {
	m.SignalDegraded.WithLabelValues(signal).Inc()
}

func (m *Metrics) ObserveRiskScore(score int, suspicious bool) {
	m.RiskScore.Observe(float64(score))
	if suspicious {
		m.SuspiciousTotal.Inc()
	}
}

func (m *Metrics) RecordDecision(allowed bool, reason string) {
	if allowed {
		m.DecisionsAllowed.Inc()
		return
	}
	m.DecisionsDenied.WithLabelValues(reason).Inc()
}
