package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tnqbao/gau-feed-service/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"
)

type LoggerClient struct {
	logger *slog.Logger
}

// InitLoggerClient routes records through the otelslog bridge when telemetry
// export is enabled and falls back to JSON on stdout otherwise.
func InitLoggerClient(cfg *config.EnvConfig, telemetry *TelemetryClient) *LoggerClient {
	if telemetry != nil && telemetry.LoggerProvider != nil {
		return NewLoggerClient(otelslog.NewLogger(
			cfg.Grafana.ServiceName,
			otelslog.WithLoggerProvider(telemetry.LoggerProvider),
		))
	}

	level := slog.LevelInfo
	if cfg.Environment.Mode == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return NewLoggerClient(slog.New(handler).With(
		slog.String("service", cfg.Grafana.ServiceName),
		slog.String("env", cfg.Environment.Mode),
	))
}

func NewLoggerClient(logger *slog.Logger) *LoggerClient {
	return &LoggerClient{logger: logger}
}

func (l *LoggerClient) DebugWithContextf(ctx context.Context, format string, args ...any) {
	l.log(ctx, slog.LevelDebug, nil, format, args...)
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...any) {
	l.log(ctx, slog.LevelInfo, nil, format, args...)
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...any) {
	l.log(ctx, slog.LevelWarn, nil, format, args...)
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...any) {
	l.log(ctx, slog.LevelError, err, format, args...)
}

func (l *LoggerClient) log(ctx context.Context, level slog.Level, err error, format string, args ...any) {
	if !l.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 3)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf(format, args...), attrs...)
}
