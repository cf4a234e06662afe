// Package logger builds the zap logger from configuration.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fentz26/taskmaster/internal/config"
)

// Modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// New builds a logger. Mode "development" (or "debug") selects zap's
// development preset; anything else the production one. Logs go to stderr
// so command output on stdout stays clean.
func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Mode) {
	case ModeDevelopment, "debug":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}

	switch strings.ToLower(cfg.Encoding) {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "json":
		zc.Encoding = "json"
	default:
		return nil, fmt.Errorf("invalid log encoding %q, must be: console or json", cfg.Encoding)
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
