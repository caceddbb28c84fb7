// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger writes to stdout (or Options.Writer) and, when a file is configured,
// to that file too.
type Logger struct {
	*slog.Logger
	file *os.File
}

// Options selects the handler. Format is "text" or "json"; Level is one of
// debug, info, warn, error.
type Options struct {
	Level  string
	Format string
	File   string
	Writer io.Writer
}

// New builds the logger and installs it as the slog default.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Writer
	if out == nil {
		out = os.Stdout
	}
	writers := []io.Writer{out}
	var file *os.File
	if opts.File != "" {
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}
	l := &Logger{Logger: slog.New(NewHandler(io.MultiWriter(writers...), opts.Format, level)), file: file}
	slog.SetDefault(l.Logger)
	return l, nil
}

func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	ho := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
