package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-organizer/internal/core/domain"
	"github.com/kirillkom/document-organizer/internal/core/ports"
)

// BatchOptions carries the optional collaborators of a batch run.
type BatchOptions struct {
	Notifier ports.ResultNotifier
	Observer ports.BatchObserver
	Logger   *slog.Logger
	Now      func() time.Time
	NewRunID func() string
}

type BatchUseCase struct {
	settings   domain.BatchSettings
	extractor  ports.ContentExtractor
	classifier ports.Classifier
	decider    *DecisionEngine
	router     ports.FileRouter
	reports    ports.ReportWriter

	notifier ports.ResultNotifier
	observer ports.BatchObserver
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

func NewBatchUseCase(
	settings domain.BatchSettings,
	extractor ports.ContentExtractor,
	classifier ports.Classifier,
	decider *DecisionEngine,
	router ports.FileRouter,
	reports ports.ReportWriter,
	options BatchOptions,
) *BatchUseCase {
	uc := &BatchUseCase{
		settings:   settings,
		extractor:  extractor,
		classifier: classifier,
		decider:    decider,
		router:     router,
		reports:    reports,
		notifier:   options.Notifier,
		observer:   options.Observer,
		logger:     options.Logger,
		now:        options.Now,
		newRunID:   options.NewRunID,
	}
	if uc.logger == nil {
		uc.logger = slog.Default()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.newRunID == nil {
		uc.newRunID = uuid.NewString
	}
	return uc
}

// Run organizes the configured input directory and persists the batch report.
func (uc *BatchUseCase) Run(ctx context.Context) (*domain.Report, error) {
	runID := uc.newRunID()
	logger := uc.logger.With("run_id", runID)
	logger.Info("batch_started",
		"input_dir", uc.settings.InputDir,
		"output_dir", uc.settings.OutputDir,
		"confidence_threshold", uc.settings.ConfidenceThreshold,
	)

	results, processErr := uc.processDirectory(ctx, runID, uc.settings.InputDir)
	if processErr != nil && results == nil {
		return nil, processErr
	}

	report := GenerateReport(runID, uc.now(), results)

	// The report must land even when the batch was interrupted between files.
	tailCtx := context.WithoutCancel(ctx)
	path, err := uc.reports.WriteReport(tailCtx, report)
	if err != nil {
		logger.Error("report_write_failed", "error", err)
		return &report, fmt.Errorf("write report: %w", err)
	}
	logger.Info("batch_finished",
		"report_path", path,
		"total_files", report.TotalFiles,
		"errors", len(report.Errors),
		"to_be_checked", report.ReviewCount(),
	)

	if uc.notifier != nil {
		if err := uc.notifier.PublishReport(tailCtx, report); err != nil {
			logger.Warn("report_publish_failed", "error", err)
		}
	}
	if uc.observer != nil {
		if err := uc.observer.FinishBatch(report); err != nil {
			logger.Warn("metrics_flush_failed", "error", err)
		}
	}
	return &report, processErr
}

// ProcessDirectory files every regular file found in inputDir at call time.
// A failing file yields an error result; it never stops the batch.
func (uc *BatchUseCase) ProcessDirectory(ctx context.Context, inputDir string) ([]domain.ProcessingResult, error) {
	return uc.processDirectory(ctx, uc.newRunID(), inputDir)
}

func (uc *BatchUseCase) processDirectory(ctx context.Context, runID, inputDir string) ([]domain.ProcessingResult, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	results := make([]domain.ProcessingResult, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("batch_interrupted", "run_id", runID, "processed", len(results), "error", err)
			return results, err
		}

		result, done := uc.processFile(ctx, inputDir, entry.Name())
		if !done {
			uc.logger.Warn("batch_interrupted", "run_id", runID, "processed", len(results), "file", entry.Name(), "error", ctx.Err())
			return results, ctx.Err()
		}
		results = append(results, result)

		if uc.notifier != nil {
			if err := uc.notifier.PublishResult(ctx, runID, result); err != nil {
				uc.logger.Warn("result_publish_failed", "run_id", runID, "file", result.OriginalTitle, "error", err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		uc.logger.Warn("batch_interrupted", "run_id", runID, "processed", len(results), "error", err)
		return results, err
	}
	return results, nil
}

// fileOutcome is the explicit result of the per-file pipeline. current tracks where
// the file sits so a failure can quarantine it from there.
type fileOutcome struct {
	result  domain.ProcessingResult
	current string
	err     error
}

// processFile reports done=false when the batch was interrupted while the file
// was still in the inbox; such a file is left untouched for the next run.
func (uc *BatchUseCase) processFile(ctx context.Context, inputDir, name string) (domain.ProcessingResult, bool) {
	started := time.Now()
	if uc.observer != nil {
		uc.observer.StartFile()
	}

	path := filepath.Join(inputDir, name)
	out := uc.pipeline(ctx, path, name)
	if out.err != nil && ctx.Err() != nil && out.current == path {
		if uc.observer != nil {
			uc.observer.AbortFile()
		}
		return domain.ProcessingResult{}, false
	}

	result := out.result
	if out.err != nil {
		result = uc.fail(ctx, out.current, name, out.err)
	}

	if uc.observer != nil {
		uc.observer.FinishFile(result, time.Since(started))
	}
	return result, true
}

func (uc *BatchUseCase) pipeline(ctx context.Context, path, name string) fileOutcome {
	content := uc.extractor.Extract(ctx, path)

	analysis, err := uc.classify(ctx, path, name, content)
	if err != nil {
		return fileOutcome{current: path, err: err}
	}

	decision := uc.decider.Decide(name, analysis)
	if decision.Status == domain.StatusToBeChecked {
		uc.logger.Warn("low_confidence",
			"file", name,
			"category", analysis.Category,
			"confidence", analysis.Confidence,
			"threshold", uc.decider.Threshold(),
		)
	}

	dest, err := uc.router.Route(ctx, path, decision.Folder, decision.Filename)
	if err != nil {
		return fileOutcome{current: path, err: domain.WrapError(domain.ErrRouting, "move file", err)}
	}

	if decision.Status == domain.StatusToBeChecked {
		if _, err := uc.router.WriteReviewNote(ctx, filepath.Dir(dest), decision.Filename, analysis, uc.decider.Threshold()); err != nil {
			return fileOutcome{current: dest, err: domain.WrapError(domain.ErrRouting, "write review note", err)}
		}
	}

	uc.logger.Info("file_filed",
		"file", name,
		"final_name", decision.Filename,
		"folder", decision.Folder,
		"status", decision.Status,
	)
	return fileOutcome{
		result:  domain.NewFiledResult(name, decision.Filename, analysis, decision.Status),
		current: dest,
	}
}

func (uc *BatchUseCase) classify(ctx context.Context, path, name string, content domain.ExtractedContent) (domain.FileAnalysis, error) {
	req := domain.AnalysisRequest{Path: path, FileName: name}
	if content.HasText {
		req.Text = content.Text
	}
	if content.IsImage {
		req.ImagePath = path
	}

	analysis, err := uc.classifier.Analyse(ctx, req)
	if err != nil {
		return domain.FileAnalysis{}, domain.WrapError(domain.ErrClassification, "classify file", err)
	}
	if err := analysis.Validate(); err != nil {
		return domain.FileAnalysis{}, domain.WrapError(domain.ErrClassification, "classify file", err)
	}
	return analysis, nil
}

func (uc *BatchUseCase) fail(ctx context.Context, current, name string, processErr error) domain.ProcessingResult {
	uc.logger.Error("file_failed", "file", name, "error", processErr)

	if _, err := uc.router.Quarantine(context.WithoutCancel(ctx), current, name); err != nil {
		uc.logger.Error("quarantine_failed", "file", name, "path", current, "error", err)
		return domain.NewErrorResult(name, fmt.Errorf("%w; quarantine: %v", processErr, err))
	}
	return domain.NewErrorResult(name, processErr)
}
