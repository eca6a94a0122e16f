package domain

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryContracts         Category = "Contracts"
	CategoryInvoice           Category = "Invoice"
	CategoryPhotos            Category = "Photos"
	CategoryReports           Category = "Reports"
	CategoryExportCSV         Category = "Export_csv"
	CategoryIdentityDocuments Category = "Identity_documents"
	CategoryMaintenance       Category = "Maintenance"
	CategoryOther             Category = "Other"
)

// Categories lists the closed category set in prompt order.
var Categories = []Category{
	CategoryContracts,
	CategoryInvoice,
	CategoryPhotos,
	CategoryReports,
	CategoryExportCSV,
	CategoryIdentityDocuments,
	CategoryMaintenance,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches raw against the closed set, ignoring case and surrounding spaces.
func ParseCategory(raw string) (Category, error) {
	trimmed := strings.TrimSpace(raw)
	for _, known := range Categories {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", WrapError(ErrInvalidInput, "parse category", fmt.Errorf("unknown category %q", raw))
}

// FileAnalysis is the classifier verdict for one file.
type FileAnalysis struct {
	Category    Category `json:"category"`
	FileName    string   `json:"file_name"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
}

func (a FileAnalysis) Validate() error {
	if !a.Category.Valid() {
		return WrapError(ErrInvalidInput, "validate analysis", fmt.Errorf("unknown category %q", a.Category))
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return WrapError(ErrInvalidInput, "validate analysis", fmt.Errorf("confidence %v outside [0,1]", a.Confidence))
	}
	return nil
}

// ExtractedContent is what the extractor could read from a file.
// IsImage implies HasText is false.
type ExtractedContent struct {
	Text    string
	HasText bool
	IsImage bool
}

type AnalysisRequest struct {
	Path      string
	FileName  string
	Text      string
	ImagePath string
}
