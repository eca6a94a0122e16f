package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

const maxQuarantineSuffix = 1000

// Router moves files inside the output tree. It never overwrites an existing file.
type Router struct {
	basePath string
}

func New(basePath string) (*Router, error) {
	if basePath == "" {
		basePath = "./data/organised"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Router{basePath: basePath}, nil
}

func (r *Router) BasePath() string {
	return r.basePath
}

// Route moves srcPath to <base>/<folder>/<filename> and returns the new path.
func (r *Router) Route(_ context.Context, srcPath, folder, filename string) (string, error) {
	destDir, err := r.ensureDir(folder)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, filename)
	if err := moveFile(srcPath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

var writeString = io.WriteString

// WriteReviewNote writes the sidecar note explaining why a file needs manual review.
func (r *Router) WriteReviewNote(_ context.Context, destDir, filename string, analysis domain.FileAnalysis, threshold float64) (string, error) {
	notePath := filepath.Join(destDir, noteFilename(filename))
	f, err := os.OpenFile(notePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", domain.WrapError(domain.ErrDestinationExists, "write review note", fmt.Errorf("%s", notePath))
		}
		return "", fmt.Errorf("create note: %w", err)
	}
	_, err = writeString(f, r.reviewNote(filename, analysis, threshold))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(notePath)
		return "", fmt.Errorf("write note: %w", err)
	}
	return notePath, nil
}

// Quarantine moves a failed file into the Errors folder under its original name,
// adding a numeric suffix when that name is taken.
func (r *Router) Quarantine(_ context.Context, srcPath, originalName string) (string, error) {
	destDir, err := r.ensureDir(domain.ErrorFolder)
	if err != nil {
		return "", err
	}

	base := filepath.Base(originalName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 0; i < maxQuarantineSuffix; i++ {
		name := base
		if i > 0 {
			name = stem + "_" + strconv.Itoa(i) + ext
		}
		dest := filepath.Join(destDir, name)
		err := moveFile(srcPath, dest)
		if err == nil {
			return dest, nil
		}
		if !domain.IsKind(err, domain.ErrDestinationExists) {
			return "", err
		}
	}
	return "", domain.WrapError(domain.ErrDestinationExists, "quarantine", fmt.Errorf("no free name for %s", base))
}

func (r *Router) ensureDir(folder string) (string, error) {
	dir := filepath.Join(r.basePath, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}
	return dir, nil
}

func (r *Router) reviewNote(filename string, analysis domain.FileAnalysis, threshold float64) string {
	return fmt.Sprintf(
		"File: %s\n"+
			"Proposed category: %s\n"+
			"Confidence score: %.2f (threshold: %g)\n"+
			"Reasoning: %s\n"+
			"\nAction required: please check this file manually and move it into the right folder %s/{category}/.",
		filename,
		analysis.Category,
		analysis.Confidence,
		threshold,
		analysis.Reasoning,
		filepath.Base(r.basePath),
	)
}

func noteFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "_note.txt"
}

// moveFile renames src to dest, copying across devices. dest must not exist.
func moveFile(src, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return domain.WrapError(domain.ErrDestinationExists, "move file", fmt.Errorf("%s", dest))
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename file: %w", err)
	}
	return copyAndRemove(src, dest)
}

func copyAndRemove(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return domain.WrapError(domain.ErrDestinationExists, "move file", fmt.Errorf("%s", dest))
		}
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close destination: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}
