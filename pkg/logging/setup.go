package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"gopkg.in/natefinch/lumberjack.v2"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
)

// Options configures the process wide logger.
type Options struct {
	Mode env.Mode
	// Path enables a rotated log file in addition to stdout.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// ServiceName routes records through the OpenTelemetry log bridge when set.
	ServiceName string
}

// Setup builds the default logger and installs it with slog.SetDefault.
// The returned func closes the rotated file, if any.
func Setup(opts Options) (*slog.Logger, func() error) {
	var (
		w       io.Writer = os.Stdout
		closeFn           = func() error { return nil }
	)

	if opts.Path != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, lj)
		closeFn = lj.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Mode.SlogLevel()}

	var handler slog.Handler
	switch opts.Mode {
	case env.Local, env.Test:
		handler = slog.NewTextHandler(w, handlerOpts)
	default:
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	if opts.ServiceName != "" {
		handler = slogmulti.Fanout(handler, otelslog.NewHandler(opts.ServiceName))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, closeFn
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
