package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{" INFO ", log.InfoLevel},
		{"error", log.ErrorLevel},
		{"", log.WarnLevel},
		{"loud", log.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestConfigureFiltersByLevel(t *testing.T) {
	var out bytes.Buffer
	Configure("error", &out)
	t.Cleanup(func() { Configure("warn", nil) })

	Warn("quiet")
	assert.Empty(t, out.String())

	Error("loud", "key", "value")
	assert.Contains(t, out.String(), "loud")
	assert.Contains(t, out.String(), "value")
}

func TestConfigureFallsBackToEnvironment(t *testing.T) {
	t.Setenv("MDLESS_LOG_LEVEL", "debug")
	var out bytes.Buffer
	Configure("", &out)
	t.Cleanup(func() { Configure("warn", nil) })

	Debug("details")
	assert.Contains(t, out.String(), "details")
}
