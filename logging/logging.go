// Package logging builds the zerolog loggers used across scenechanger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Path   string // optional log file, appended to
	// Out replaces stderr when set.
	Out io.Writer
}

// Logger is a zerolog.Logger that may own an open log file.
type Logger struct {
	zerolog.Logger
	file *os.File
}

func New(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	l := &Logger{}
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		l.file = f
		out = io.MultiWriter(out, f)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
	case "text":
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	default:
		_ = l.Close()
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	l.Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
	return l, nil
}

// Component returns a child logger tagged with component.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}
