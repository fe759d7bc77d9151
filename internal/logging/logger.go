// Package logging turns the [log] configuration section into a slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/verte-zerg/bguard/internal/config"
)

var levels = map[string]slog.Level{
	"":        slog.LevelWarn,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"debug":   slog.LevelDebug,
	"error":   slog.LevelError,
}

type handlerFunc func(io.Writer, *slog.HandlerOptions) slog.Handler

func textHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewTextHandler(w, opts)
}

func jsonHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

var formats = map[string]handlerFunc{
	"":        textHandler,
	"text":    textHandler,
	"console": textHandler,
	"json":    jsonHandler,
}

// Sink is a logger and the log file it appends to, if any.
type Sink struct {
	*slog.Logger
	Level *slog.LevelVar

	file *os.File
}

// Open builds a logger from cfg. Unset level and format mean warn and text.
// Records go to cfg.File when it is set and to fallback otherwise; a nil
// fallback means stderr.
func Open(cfg config.LogConfig, fallback io.Writer) (*Sink, error) {
	level, ok := levels[normalize(cfg.Level)]
	if !ok {
		return nil, fmt.Errorf("unhandled log level %q", *cfg.Level)
	}
	newHandler, ok := formats[normalize(cfg.Format)]
	if !ok {
		return nil, fmt.Errorf("unsupported log format %q", *cfg.Format)
	}

	s := &Sink{Level: new(slog.LevelVar)}
	s.Level.Set(level)

	out := fallback
	if out == nil {
		out = os.Stderr
	}
	if cfg.File != nil && strings.TrimSpace(*cfg.File) != "" {
		f, err := os.OpenFile(*cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		s.file = f
		out = f
	}

	s.Logger = slog.New(newHandler(out, &slog.HandlerOptions{
		Level:       s.Level,
		ReplaceAttr: utcTime,
	}))
	return s, nil
}

// Close releases the log file. It is a no-op for other outputs.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func normalize(v *string) string {
	if v == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*v))
}

func utcTime(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
		attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
	}
	return attr
}
