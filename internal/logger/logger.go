// Package logger configures the process-wide zerolog logger and provides
// context-aware helpers for call sites that only need a line of text.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls logger output.
type Config struct {
	Level  string
	Pretty bool
	File   string
}

// Init installs the global logger. When File is set, output goes to both
// stderr and the file; the returned closer releases the file.
func Init(cfg Config) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return closer, nil
}

// From returns the logger carried by ctx, or the global logger.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// With returns a copy of ctx whose logger carries the extra field.
func With(ctx context.Context, key string, value any) context.Context {
	l := From(ctx).With().Interface(key, value).Logger()
	return l.WithContext(ctx)
}

// DebugLog writes a formatted debug line.
func DebugLog(ctx context.Context, format string, args ...any) {
	From(ctx).Debug().Msgf(format, args...)
}

// InfoLog writes a formatted info line.
func InfoLog(ctx context.Context, format string, args ...any) {
	From(ctx).Info().Msgf(format, args...)
}

// WarnLog writes a formatted warning.
func WarnLog(ctx context.Context, format string, args ...any) {
	From(ctx).Warn().Msgf(format, args...)
}

// ErrorLog writes a formatted error line.
func ErrorLog(ctx context.Context, format string, args ...any) {
	From(ctx).Error().Msgf(format, args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
