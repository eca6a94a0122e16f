package usecase

import (
	"time"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

// GenerateReport folds the full result sequence of a batch into a report.
// It depends on nothing but its arguments.
func GenerateReport(runID string, executedAt time.Time, results []domain.ProcessingResult) domain.Report {
	return domain.Report{
		RunID:      runID,
		ExecutedAt: executedAt,
		TotalFiles: len(results),
		Categories: countCategories(results),
		Files:      filedEntries(results),
		Errors:     errorEntries(results),
	}
}

func countCategories(results []domain.ProcessingResult) map[string]int {
	counts := make(map[string]int)
	for _, res := range results {
		switch {
		case !res.Filed():
			continue
		case res.Category != "":
			counts[string(res.Category)]++
		case res.Status == domain.StatusToBeChecked:
			counts[string(domain.CategoryOther)]++
		}
	}
	return counts
}

func filedEntries(results []domain.ProcessingResult) []domain.FiledEntry {
	entries := make([]domain.FiledEntry, 0, len(results))
	for _, res := range results {
		if !res.Filed() {
			continue
		}
		entries = append(entries, domain.FiledEntry{
			OriginalTitle: res.OriginalTitle,
			FinalTitle:    res.FinalTitle,
			Category:      res.Category,
			Confidence:    res.Confidence,
			Status:        res.Status,
		})
	}
	return entries
}

func errorEntries(results []domain.ProcessingResult) []domain.ErrorEntry {
	entries := make([]domain.ErrorEntry, 0)
	for _, res := range results {
		if res.Status != domain.StatusError {
			continue
		}
		entries = append(entries, domain.ErrorEntry{
			OriginalTitle: res.OriginalTitle,
			ErrorMessage:  res.ErrorMessage,
		})
	}
	return entries
}
