package config

import (
	"context"
	"log/slog"
)

type configKey struct{}
type loggerKey struct{}

// IntoContext stores the loaded config and logger for command handlers.
func IntoContext(ctx context.Context, cfg *Config, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey{}, cfg)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves the loaded config, or nil.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return nil
}

// LoggerFromContext retrieves the logger from the command context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Discard is the safe fallback.
	return slog.New(slog.DiscardHandler)
}
