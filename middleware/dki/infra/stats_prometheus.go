package infra

import (
	"context"

	"dki-gateway/middleware/dki/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "dki"
	MetricsSubsystem = "rewrite"
)

// PrometheusStatsStore expõe as execuções do DKI como métricas Prometheus.
type PrometheusStatsStore struct {
	Runs      *prometheus.CounterVec
	TextNodes prometheus.Counter
	Entries   prometheus.Counter
	Titles    prometheus.Counter
}

// NewPrometheusStatsStore cria e registra as métricas. reg nil usa o registry padrão.
func NewPrometheusStatsStore(reg prometheus.Registerer) *PrometheusStatsStore {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusStatsStore{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Total number of DKI runs by resolution reason and outcome",
		}, []string{"reason", "aborted"}),
		TextNodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "text_nodes_total",
			Help:      "Total number of text nodes rewritten",
		}),
		Entries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "social_proof_entries_total",
			Help:      "Total number of social proof entries synchronized",
		}),
		Titles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "titles_total",
			Help:      "Total number of document titles rewritten",
		}),
	}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.RewriteEvent) error {
	aborted := "false"
	if ev.Aborted {
		aborted = "true"
	}
	s.Runs.WithLabelValues(reasonField(ev.Reason), aborted).Inc()
	s.TextNodes.Add(float64(ev.TextNodes))
	s.Entries.Add(float64(ev.Entries))
	if ev.TitleChanged {
		s.Titles.Inc()
	}
	return nil
}
