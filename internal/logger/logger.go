// Package logger builds the structured zap logger shared by the server and CLI.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLevel = "info"

// New constructs a JSON zap logger at the given level. Unknown levels fall back to info.
func New(level string) (*zap.Logger, error) {
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = atomic.UnmarshalText([]byte(defaultLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "severity",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	cfg := zap.Config{
		Level:             atomic,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
