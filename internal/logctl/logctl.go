// Package logctl is chatwarden's structured logging layer. Every
// actor logs through the same component-tagged calls so a log line
// always identifies which actor produced it.
package logctl

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Format selects the rendering used by Init.
type Format string

const (
	// FormatText renders colorized, human-readable lines via tint.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Config controls how Init builds the process-wide logger.
type Config struct {
	Level  slog.Level
	Format Format
}

var base = slog.Default()

// Init installs the process-wide logger used by Info/Warn/Error/Debug.
// Call it once during startup before any actor begins logging.
func Init(cfg Config) {
	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level})
	default:
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.Level})
	}
	base = slog.New(handler)
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields)*2+2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

// Info logs an informational line tagged with component.
func Info(component, msg string, fields map[string]any) {
	base.With("component", component).Info(msg, attrs(fields)...)
}

// Warn logs a warning line tagged with component.
func Warn(component, msg string, fields map[string]any) {
	base.With("component", component).Warn(msg, attrs(fields)...)
}

// Error logs an error line tagged with component.
func Error(component, msg string, fields map[string]any) {
	base.With("component", component).Error(msg, attrs(fields)...)
}

// Debug logs a debug line tagged with component.
func Debug(component, msg string, fields map[string]any) {
	base.With("component", component).Debug(msg, attrs(fields)...)
}
