package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production emits compact JSON;
// elsewhere a text handler with source locations aids debugging.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: !cfg.IsProduction(),
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
