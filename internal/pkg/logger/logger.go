package logger

import (
	"go.uber.org/zap"
)

// ZapLogger adapts zap to ports.Logger. It is silent unless verbose.
type ZapLogger struct {
	base *zap.Logger
}

// New creates a logger writing development-style output to stderr when
// verbose, and discarding everything otherwise.
func New(verbose bool) *ZapLogger {
	if !verbose {
		return &ZapLogger{base: zap.NewNop()}
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	base, err := cfg.Build()
	if err != nil {
		return &ZapLogger{base: zap.NewNop()}
	}
	return &ZapLogger{base: base}
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(base *zap.Logger) *ZapLogger {
	return &ZapLogger{base: base}
}

// With returns a logger that adds fields to every entry.
func (l *ZapLogger) With(fields map[string]interface{}) *ZapLogger {
	return &ZapLogger{base: l.base.With(toFields(fields)...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.base.Debug(msg, toFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.base.Info(msg, toFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.base.Warn(msg, toFields(fields)...)
}

func (l *ZapLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.base.Error(msg, append(toFields(fields), zap.Error(err))...)
}

func toFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
