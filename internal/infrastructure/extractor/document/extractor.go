// Package document reads the textual content of office documents for classification.
//
// Supported inputs:
//   - .txt .md .log  plain UTF-8 text
//   - .pdf           text layer via ledongthuc/pdf
//   - .docx          word/document.xml paragraphs
//   - .xlsx .xlsm    every sheet, one line per row, via excelize
//   - .csv           one line per record
//   - .jpg .jpeg .png .webp  flagged as images, no text
//
// Anything else, and any parse failure, yields content without text.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

const defaultMaxFileSize = 50 << 20

type format string

const (
	formatText  format = "text"
	formatPDF   format = "pdf"
	formatDocx  format = "docx"
	formatXlsx  format = "xlsx"
	formatCSV   format = "csv"
	formatImage format = "image"
)

var formatsByExt = map[string]format{
	".txt":  formatText,
	".md":   formatText,
	".log":  formatText,
	".pdf":  formatPDF,
	".docx": formatDocx,
	".xlsx": formatXlsx,
	".xlsm": formatXlsx,
	".csv":  formatCSV,
	".jpg":  formatImage,
	".jpeg": formatImage,
	".png":  formatImage,
	".webp": formatImage,
}

type Options struct {
	MaxFileSize int64
	Logger      *slog.Logger
}

type Extractor struct {
	maxFileSize int64
	logger      *slog.Logger
}

func NewExtractor(options Options) *Extractor {
	maxSize := options.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{maxFileSize: maxSize, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, path string) domain.ExtractedContent {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := formatsByExt[ext]
	if !ok {
		e.logger.Warn("unsupported_file_type", "file", filepath.Base(path), "extension", ext)
		return domain.ExtractedContent{}
	}
	if kind == formatImage {
		return domain.ExtractedContent{IsImage: true}
	}

	text, err := e.extractText(ctx, path, kind)
	if err != nil {
		e.logger.Error("extract_failed", "file", filepath.Base(path), "format", string(kind), "error", err)
		return domain.ExtractedContent{}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ExtractedContent{}
	}
	return domain.ExtractedContent{Text: text, HasText: true}
}

func (e *Extractor) extractText(ctx context.Context, path string, kind format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > e.maxFileSize {
		return "", domain.WrapError(domain.ErrUnsupportedContent, "extract", fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.maxFileSize))
	}

	switch kind {
	case formatText:
		return extractPlainText(path)
	case formatPDF:
		return extractPDF(path)
	case formatDocx:
		return extractDocx(path)
	case formatXlsx:
		return extractXlsx(path)
	case formatCSV:
		return extractCSV(path)
	default:
		return "", domain.WrapError(domain.ErrUnsupportedContent, "extract", fmt.Errorf("format %s", kind))
	}
}
