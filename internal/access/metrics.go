// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package access

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts resolution outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Resolutions   *prometheus.CounterVec
	StaleResults  prometheus.Counter
	FetchTimeouts *prometheus.CounterVec
}

// NewMetrics creates the access metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uhailink_access_resolutions_total",
				Help: "Access resolutions by resulting state",
			},
			[]string{"state"},
		),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uhailink_access_stale_results_total",
			Help: "Resolution results discarded because a newer evaluation was started",
		}),
		FetchTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uhailink_access_fetch_timeouts_total",
				Help: "Session and role fetches that exceeded the resolution timeout",
			},
			[]string{"fetch"},
		),
	}
	reg.MustRegister(m.Resolutions, m.StaleResults, m.FetchTimeouts)
	return m
}

func (m *Metrics) resolved(s State) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) stale() {
	if m == nil {
		return
	}
	m.StaleResults.Inc()
}

func (m *Metrics) fetchTimedOut(fetch string) {
	if m == nil {
		return
	}
	m.FetchTimeouts.WithLabelValues(fetch).Inc()
}
