package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/document-organizer/internal/config"
	"github.com/kirillkom/document-organizer/internal/core/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.InputDir = filepath.Join(root, "inbox")
	cfg.OutputDir = filepath.Join(root, "organised")
	cfg.AIProvider = "ollama"

	app, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err = %v", dir, err)
		}
	}
	if app.BatchUC == nil || app.Metrics == nil {
		t.Fatalf("expected wired app, got %+v", app)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.GeminiAPIKey = ""
	if _, err := New(context.Background(), cfg, quietLogger()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestNewContinuesWithoutNATS(t *testing.T) {
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.InputDir = filepath.Join(root, "inbox")
	cfg.OutputDir = filepath.Join(root, "organised")
	cfg.AIProvider = "ollama"
	cfg.NATSURL = "nats://127.0.0.1:1"

	app, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	app.Close()
}

func TestEmptyInboxProducesReport(t *testing.T) {
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.InputDir = filepath.Join(root, "inbox")
	cfg.OutputDir = filepath.Join(root, "organised")
	cfg.AIProvider = "ollama"
	cfg.MetricsTextfile = filepath.Join(root, "organizer.prom")

	app, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := app.BatchUC.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.TotalFiles != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	for _, path := range []string{filepath.Join(cfg.OutputDir, "rapport_traitement.json"), cfg.MetricsTextfile} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
	}
}
