package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

const filenameDateLayout = "2006-01-02"

// Decision is the filing verdict for one file.
type Decision struct {
	Folder   string
	Status   domain.ProcessingStatus
	Filename string
}

// DecisionEngine turns a classifier verdict into a destination. It never touches the filesystem.
type DecisionEngine struct {
	threshold float64
	now       func() time.Time
}

func NewDecisionEngine(threshold float64, now func() time.Time) *DecisionEngine {
	if now == nil {
		now = time.Now
	}
	return &DecisionEngine{threshold: threshold, now: now}
}

func (e *DecisionEngine) Threshold() float64 {
	return e.threshold
}

func (e *DecisionEngine) Decide(filename string, analysis domain.FileAnalysis) Decision {
	folder, status := e.route(analysis)
	return Decision{
		Folder:   folder,
		Status:   status,
		Filename: e.buildFilename(filename, analysis),
	}
}

func (e *DecisionEngine) route(analysis domain.FileAnalysis) (string, domain.ProcessingStatus) {
	if analysis.Confidence < e.threshold {
		return domain.ReviewFolder, domain.StatusToBeChecked
	}
	return string(analysis.Category), domain.StatusSuccess
}

func (e *DecisionEngine) buildFilename(filename string, analysis domain.FileAnalysis) string {
	return fmt.Sprintf("%s_%s_%s%s",
		e.now().Format(filenameDateLayout),
		analysis.Category,
		sanitizeDescription(analysis.Description),
		fileExtension(filename),
	)
}

// sanitizeDescription keeps letters, numbers, spaces, hyphens and underscores.
func sanitizeDescription(description string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			return r
		case r == ' ', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, description)
}

// fileExtension returns the extension of name; dotfiles such as ".env" have none.
func fileExtension(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return ext
}
