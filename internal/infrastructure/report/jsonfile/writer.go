// Package jsonfile persists the batch report as an indented JSON document at
// the root of the output tree.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

const FileName = "rapport_traitement.json"

type Writer struct {
	dir string
}

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Path() string {
	return filepath.Join(w.dir, FileName)
}

// WriteReport replaces any previous report atomically.
func (w *Writer) WriteReport(ctx context.Context, report domain.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".rapport-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp report: %w", err)
	}

	dest := w.Path()
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("publish report: %w", err)
	}
	return dest, nil
}
