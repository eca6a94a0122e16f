package ports

import (
	"context"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

// BatchProcessor is the inbound contract for one organizing pass over an input directory.
type BatchProcessor interface {
	ProcessDirectory(ctx context.Context, inputDir string) ([]domain.ProcessingResult, error)
	Run(ctx context.Context) (*domain.Report, error)
}
