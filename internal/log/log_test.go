package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewHonorsLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Output: &buf})

	logger.WithFields(logrus.Fields{"conversation_id": "c1"}).Info("dropped")
	require.Empty(t, buf.String())

	logger.WithFields(logrus.Fields{"conversation_id": "c1"}).Warn("kept")
	require.Contains(t, buf.String(), "kept")
	require.Contains(t, buf.String(), "c1")
}

func TestNewDefaultsToInfo(t *testing.T) {
	logger := New(Options{Level: "nonsense", Output: &bytes.Buffer{}})
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewWritesPlainTextToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labeleval.log")
	var console bytes.Buffer
	logger := New(Options{Level: "info", File: path, Output: &console})

	logger.WithField("run_id", "r1").Error("run failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "run failed")
	require.Contains(t, string(data), "r1")
	require.NotContains(t, string(data), "\x1b[")
	require.Equal(t, console.String(), string(data))
}
