// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package chat

import "github.com/prometheus/client_golang/prometheus"

// Stream outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics counts assistant activity. A nil *Metrics records nothing.
type Metrics struct {
	Streams          *prometheus.CounterVec
	Blocked          prometheus.Counter
	OfflineFallbacks prometheus.Counter
}

// NewMetrics creates the chat metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uhailink_chat_streams_total",
			Help: "Completion streams by outcome",
		}, []string{"outcome"}),
		Blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uhailink_chat_blocked_total",
			Help: "Messages rejected by the blocklist",
		}),
		OfflineFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uhailink_chat_offline_fallbacks_total",
			Help: "Replies served from the offline guides",
		}),
	}
	reg.MustRegister(m.Streams, m.Blocked, m.OfflineFallbacks)
	return m
}

func (m *Metrics) stream(outcome string) {
	if m != nil {
		m.Streams.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) blocked() {
	if m != nil {
		m.Blocked.Inc()
	}
}

func (m *Metrics) offline() {
	if m != nil {
		m.OfflineFallbacks.Inc()
	}
}
