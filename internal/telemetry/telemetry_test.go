package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"labeleval/internal/classify"
	"labeleval/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordAttempt(t *testing.T) {
	m := NewMetrics()
	m.RecordAttempt(classify.AttemptEvent{Phase: classify.PhasePrimary, Outcome: classify.OutcomeError, InputTokens: 10, OutputTokens: 3, Duration: time.Second})
	m.RecordAttempt(classify.AttemptEvent{Phase: classify.PhaseFallback, Outcome: classify.OutcomeOK, InputTokens: 12, OutputTokens: 4})

	require.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("primary", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("fallback", "ok")))
	require.Equal(t, 22.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("input")))
}

func TestObserveRunAndTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun(time.Now().Add(-2*time.Second), errors.New("boom"))
	require.Equal(t, 0.0, testutil.ToFloat64(m.RunSuccess))
	require.GreaterOrEqual(t, testutil.ToFloat64(m.RunDurationSeconds), 2.0)

	m.ObserveEvaluation(domain.MetricsRecord{JointAccuracy: 0.25})
	require.Equal(t, 0.25, testutil.ToFloat64(m.EvaluationScore.WithLabelValues("all_correct")))

	path := filepath.Join(t.TempDir(), "labeleval.prom")
	require.NoError(t, m.WriteTextfile(path))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), "labeleval_run_success 0")
	require.NoError(t, m.WriteTextfile(""))
}
