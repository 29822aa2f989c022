// Package metrics holds the service's prometheus collectors. All methods are
// safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	accessDecisions *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	conversations   prometheus.Counter
	recoveryResults *prometheus.CounterVec
	indexJobs       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "access_decisions_total",
			Help:      "Tenant resolutions by decided access status.",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "request_rejections_total",
			Help:      "Requests rejected by the chat pipeline, by reason.",
		}, []string{"reason"}),
		conversations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "conversations_total",
			Help:      "Conversations counted against a monthly quota.",
		}),
		recoveryResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "recovery_candidates_total",
			Help:      "Recovery reconciler outcomes per candidate.",
		}, []string{"outcome"}),
		indexJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "index_jobs_total",
			Help:      "Knowledge indexing jobs by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.accessDecisions,
		m.rejections,
		m.conversations,
		m.recoveryResults,
		m.indexJobs,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AccessDecision(status string) {
	if m == nil {
		return
	}
	m.accessDecisions.WithLabelValues(status).Inc()
}

// Rejected counts a short-circuited request: "access_denied",
// "upgrade_required", "quota", "rate_limited" or "validation".
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) Conversation() {
	if m == nil {
		return
	}
	m.conversations.Inc()
}

func (m *Metrics) RecoveryOutcome(recovered bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if recovered {
		outcome = "recovered"
	}
	m.recoveryResults.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IndexJob(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "indexed"
	}
	m.indexJobs.WithLabelValues(result).Inc()
}
