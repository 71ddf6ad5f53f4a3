// Package telemetry exposes run metrics in the node-exporter textfile format.
package telemetry

import (
	"fmt"
	"time"

	"labeleval/internal/classify"
	"labeleval/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	AttemptsTotal           *prometheus.CounterVec
	AttemptDuration         *prometheus.HistogramVec
	TokensTotal             *prometheus.CounterVec
	ConversationsClassified prometheus.Counter
	RunDurationSeconds      prometheus.Gauge
	RunSuccess              prometheus.Gauge
	LastRunTimestamp        prometheus.Gauge
	EvaluationScore         *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.AttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labeleval_classify_attempts_total",
			Help: "Classification backend calls by phase and outcome",
		},
		[]string{"phase", "outcome"},
	)

	m.AttemptDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labeleval_classify_attempt_duration_seconds",
			Help:    "Duration of classification backend calls in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	m.TokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labeleval_llm_tokens_total",
			Help: "Tokens reported by the classification backend",
		},
		[]string{"direction"},
	)

	m.ConversationsClassified = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "labeleval_conversations_classified_total",
			Help: "Conversations that received a validated label assignment",
		},
	)

	m.RunDurationSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "labeleval_run_duration_seconds",
			Help: "Wall time of the last run",
		},
	)

	m.RunSuccess = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "labeleval_run_success",
			Help: "1 if the last run completed, 0 if it aborted",
		},
	)

	m.LastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "labeleval_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
	)

	m.EvaluationScore = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "labeleval_evaluation_score",
			Help: "Metric table of the last evaluation (accuracy, macro-F1, joint accuracy)",
		},
		[]string{"metric"},
	)

	return m
}

// RecordAttempt makes Metrics a classify.Recorder.
func (m *Metrics) RecordAttempt(e classify.AttemptEvent) {
	m.AttemptsTotal.WithLabelValues(string(e.Phase), e.Outcome).Inc()
	m.AttemptDuration.WithLabelValues(string(e.Phase)).Observe(e.Duration.Seconds())
	m.TokensTotal.WithLabelValues("input").Add(float64(e.InputTokens))
	m.TokensTotal.WithLabelValues("output").Add(float64(e.OutputTokens))
}

func (m *Metrics) ObserveEvaluation(rec domain.MetricsRecord) {
	for _, v := range rec.Table() {
		m.EvaluationScore.WithLabelValues(v.Name).Set(v.Value)
	}
}

func (m *Metrics) ObserveRun(started time.Time, err error) {
	now := time.Now()
	m.RunDurationSeconds.Set(now.Sub(started).Seconds())
	m.LastRunTimestamp.Set(float64(now.Unix()))
	if err != nil {
		m.RunSuccess.Set(0)
		return
	}
	m.RunSuccess.Set(1)
}

// WriteTextfile atomically writes the registry for the textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
