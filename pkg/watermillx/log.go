package watermillx

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// SlogAdapter routes watermill logs to slog. Records below minLevel are
// dropped; watermill's trace level maps to slog debug minus four.
type SlogAdapter struct {
	logger   *slog.Logger
	minLevel slog.Level
}

const levelTrace = slog.LevelDebug - 4

func NewSlogAdapter(logger *slog.Logger, minLevel slog.Level) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger, minLevel: minLevel}
}

func (l *SlogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.log(slog.LevelError, msg, fields, slog.Any("error", err))
}

func (l *SlogAdapter) Info(msg string, fields watermill.LogFields) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *SlogAdapter) Debug(msg string, fields watermill.LogFields) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *SlogAdapter) Trace(msg string, fields watermill.LogFields) {
	l.log(levelTrace, msg, fields)
}

func (l *SlogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &SlogAdapter{
		logger:   l.logger.With(fieldsToAttrs(fields)...),
		minLevel: l.minLevel,
	}
}

func (l *SlogAdapter) log(level slog.Level, msg string, fields watermill.LogFields, extra ...slog.Attr) {
	if level < l.minLevel {
		return
	}
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	args := fieldsToAttrs(fields)
	for _, a := range extra {
		args = append(args, a)
	}
	l.logger.Log(ctx, level, msg, args...)
}

func fieldsToAttrs(fields watermill.LogFields) []any {
	attrs := make([]any, 0, len(fields)+1)
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}
