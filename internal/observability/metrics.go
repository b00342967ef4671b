// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the application counters.
type Metrics struct {
	AccessDecisions *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	SessionsCreated prometheus.Counter
}

// NewMetrics creates the application counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttsfeed_access_decisions_total",
			Help: "Access gate outcomes by decision",
		}, []string{"decision"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ttsfeed_login_attempts_total",
			Help: "Login and signup attempts by intent and outcome",
		}, []string{"intent", "outcome"}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ttsfeed_sessions_created_total",
			Help: "Sessions issued by login or signup",
		}),
	}

	reg.MustRegister(m.AccessDecisions, m.Logins, m.SessionsCreated)
	return m
}

// RecordAccessDecision counts one gate decision.
func (m *Metrics) RecordAccessDecision(decision string) {
	m.AccessDecisions.WithLabelValues(decision).Inc()
}

// RecordLogin counts one login or signup attempt. A successful attempt also
// counts a new session.
func (m *Metrics) RecordLogin(intent, outcome string) {
	m.Logins.WithLabelValues(intent, outcome).Inc()
	if outcome == "success" {
		m.SessionsCreated.Inc()
	}
}
