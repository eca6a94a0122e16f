package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

const (
	filePrefix = "pipeline_"
	fileLayout = "2006-01-02"
)

func NewJSONLogger(service, level string) *slog.Logger {
	return newJSONLogger(os.Stdout, service, level)
}

func newJSONLogger(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

type FileOptions struct {
	Service       string
	Level         string
	Dir           string
	RetentionDays int
	Stdout        io.Writer
	Now           func() time.Time
}

// New logs JSON to stdout and to a daily pipeline_YYYY-MM-DD.log file in Dir.
// Log files older than RetentionDays are removed first. With an empty Dir it
// behaves like NewJSONLogger. The returned func closes the log file.
func New(options FileOptions) (*slog.Logger, func() error, error) {
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if strings.TrimSpace(options.Dir) == "" {
		return newJSONLogger(stdout, options.Service, options.Level), func() error { return nil }, nil
	}
	now := time.Now
	if options.Now != nil {
		now = options.Now
	}

	if err := os.MkdirAll(options.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	if _, err := Prune(options.Dir, options.RetentionDays, now()); err != nil {
		return nil, nil, err
	}

	path := filepath.Join(options.Dir, FileName(now()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	opts := &slog.HandlerOptions{Level: parseLevel(options.Level)}
	logger := slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(stdout, opts),
		slog.NewJSONHandler(file, opts),
	)).With("service", options.Service)
	return logger, file.Close, nil
}

func FileName(day time.Time) string {
	return filePrefix + day.Format(fileLayout) + ".log"
}

// Prune deletes daily log files dated more than retentionDays before now.
// retentionDays <= 0 keeps everything.
func Prune(dir string, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read log dir: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		day, err := time.Parse(fileLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".log"))
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("remove old log %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
