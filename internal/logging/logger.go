package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextKey string

const loggerKey contextKey = "logger"

// New builds the root logger. format is "json" or "text".
func New(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// WithLogger stores a request scoped logger in ctx.
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or the standard logger.
func FromContext(ctx context.Context) logrus.FieldLogger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey).(logrus.FieldLogger); ok && log != nil {
			return log
		}
	}
	return logrus.StandardLogger()
}
