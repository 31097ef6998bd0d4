package utils

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
)

// Logger is the logging surface shared by handlers and services. It is a
// thin facade over slog so tests can swap implementations.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a logger carrying the given key-value pairs.
	With(args ...any) Logger

	// LogError logs err under the "error" key along with msg.
	LogError(err error, msg string, args ...any)

	// LogRequest logs one HTTP request, escalating the level with the
	// status code.
	LogRequest(method, path string, statusCode int, duration string, args ...any)
}

type slogLogger struct {
	base *slog.Logger
}

// NewSlogLogger wraps an existing slog.Logger.
func NewSlogLogger(base *slog.Logger) Logger {
	return &slogLogger{base: base}
}

// NewDefaultLogger returns a JSON logger at info level, suitable for
// production.
func NewDefaultLogger() Logger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// NewDevelopmentLogger returns a text logger at debug level.
func NewDevelopmentLogger() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

func (l *slogLogger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.base.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

func (l *slogLogger) LogError(err error, msg string, args ...any) {
	l.base.Error(msg, append([]any{"error", err}, args...)...)
}

func (l *slogLogger) LogRequest(method, path string, statusCode int, duration string, args ...any) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := append([]any{
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration", duration,
	}, args...)
	l.base.Log(context.Background(), level, "HTTP Request", fields...)
}

// ToSlogLogger unwraps the underlying slog.Logger. Components that take
// a *slog.Logger directly (session controller, content library) use this.
func ToSlogLogger(logger Logger) *slog.Logger {
	if sl, ok := logger.(*slogLogger); ok {
		return sl.base
	}
	return slog.Default()
}

// LoggerMiddleware routes gin's request log through our logger.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logger.LogRequest(
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency.String(),
			"client_ip", param.ClientIP,
		)
		return ""
	})
}
