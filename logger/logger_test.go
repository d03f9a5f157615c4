package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReadsLevelFromEnv(t *testing.T) {
	t.Setenv("ZIGBOT_LOG_LEVEL", "5")
	log, err := New()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.Level)
}

func TestNewRejectsBadLevel(t *testing.T) {
	t.Setenv("ZIGBOT_LOG_LEVEL", "verbose")
	_, err := New()
	require.Error(t, err)
}

func TestNewWithOutputWritesPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, logrus.InfoLevel, false)
	log.WithField("prefix", "transfer").Info("sent")
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "transfer")
	assert.Contains(t, out, "sent")
	assert.NotContains(t, out, "hidden")
}
