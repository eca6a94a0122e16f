package ports

import (
	"context"
	"time"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

// ContentExtractor reads whatever text a file carries. It never fails: unreadable
// or unsupported files come back without text.
type ContentExtractor interface {
	Extract(ctx context.Context, path string) domain.ExtractedContent
}

// Classifier asks an external model to categorize a file.
type Classifier interface {
	Analyse(ctx context.Context, req domain.AnalysisRequest) (domain.FileAnalysis, error)
}

// FileRouter relocates files inside the output tree.
type FileRouter interface {
	Route(ctx context.Context, srcPath, folder, filename string) (string, error)
	WriteReviewNote(ctx context.Context, destDir, filename string, analysis domain.FileAnalysis, threshold float64) (string, error)
	Quarantine(ctx context.Context, srcPath, originalName string) (string, error)
}

// ReportWriter persists the batch report and returns where it was written.
type ReportWriter interface {
	WriteReport(ctx context.Context, report domain.Report) (string, error)
}

// ResultNotifier publishes per-file results and the batch summary.
type ResultNotifier interface {
	PublishResult(ctx context.Context, runID string, result domain.ProcessingResult) error
	PublishReport(ctx context.Context, report domain.Report) error
}

// BatchObserver receives processing telemetry.
type BatchObserver interface {
	StartFile()
	FinishFile(result domain.ProcessingResult, duration time.Duration)
	// AbortFile ends a file left in place by an interrupted batch.
	AbortFile()
	FinishBatch(report domain.Report) error
}
