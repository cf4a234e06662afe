package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fentz26/taskmaster/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggerConfig
		enabled zapcore.Level
		quiet   zapcore.Level
	}{
		{"production info", config.LoggerConfig{Level: "info", Mode: "production", Encoding: "json"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"development debug", config.LoggerConfig{Level: "DEBUG", Mode: "development", Encoding: "console"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"warn default encoding", config.LoggerConfig{Level: "warn"}, zapcore.WarnLevel, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.quiet))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(config.LoggerConfig{Level: "info", Encoding: "xml"})
	assert.Error(t, err)
}
