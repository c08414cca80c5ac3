// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "customer-portal"

// Logger wraps a zap sugared logger and carries a dedicated security logger.
type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) With(args ...interface{}) LoggerInterface {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		security:      l.security,
	}
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

func (l *Logger) Sync() error {
	_ = l.security.l.Sync()
	return l.SugaredLogger.Sync()
}

// NewLogger creates a JSON logger writing to stdout at the given level.
// Unknown levels fall back to INFO.
func NewLogger(l string) *Logger {
	var lvl string

	switch strings.ToLower(l) {
	case "debug", "info", "warn", "error", "fatal":
		lvl = strings.ToLower(l)
	default:
		lvl = "info"
	}

	level, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		panic(err.Error())
	}

	c := zap.NewProductionConfig()
	c.Level = level
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.EncoderConfig.TimeKey = "@timestamp"
	c.OutputPaths = []string{"stdout"}
	c.ErrorOutputPaths = []string{"stderr"}
	c.Sampling = nil

	z, err := c.Build(zap.AddCallerSkip(0))
	if err != nil {
		panic(err.Error())
	}

	return &Logger{
		SugaredLogger: z.Sugar().With("app", appName),
		security:      newSecurityLogger(z),
	}
}
