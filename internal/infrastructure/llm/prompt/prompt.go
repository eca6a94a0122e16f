// Package prompt builds the classification prompt shared by every provider and
// parses the JSON verdict they return.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

const DefaultTextLimit = 2000

var categoryHints = map[domain.Category]string{
	domain.CategoryContracts:         "contracts, agreements, conventions, purchase orders",
	domain.CategoryInvoice:           "invoices, receipts, expense reports",
	domain.CategoryPhotos:            "field photos of vehicles, stations or sites (not bug screenshots)",
	domain.CategoryReports:           "reports, reviews, analyses, team schedules",
	domain.CategoryExportCSV:         "data exports, CSV or spreadsheet transaction dumps",
	domain.CategoryIdentityDocuments: "ID cards, passports, driving licences, HR documents",
	domain.CategoryMaintenance:       "application bugs, error screenshots, breakdowns, repairs, fleet or equipment servicing",
	domain.CategoryOther:             "anything that fits none of the categories above",
}

// System returns the provider-independent instructions.
func System() string {
	var b strings.Builder
	b.WriteString("You are an administrative assistant filing the documents of an electric mobility company.\n")
	b.WriteString("Documents are often written in French.\n")
	b.WriteString("Put each file in exactly ONE of these categories:\n")
	for _, category := range domain.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", category, categoryHints[category])
	}
	b.WriteString(`Return a strict JSON object with keys:
category (one of the category names above, verbatim), file_name (string), description (short phrase usable in a file name, e.g. "station-cocody"), confidence (number from 0 to 1), reasoning (string explaining the choice).
No markdown, no extra keys.`)
	return b.String()
}

// User describes one file; text is cut to limit runes.
func User(req domain.AnalysisRequest, limit int) string {
	if limit <= 0 {
		limit = DefaultTextLimit
	}
	parts := []string{"Analyse the file: " + req.FileName}
	if req.Text != "" {
		parts = append(parts, "Extracted content:\n"+truncateRunes(req.Text, limit))
	}
	if req.ImagePath != "" {
		parts = append(parts, "The file is an image; it is attached.")
	}
	return strings.Join(parts, "\n\n")
}

type analysisPayload struct {
	Category    string  `json:"category"`
	FileName    string  `json:"file_name"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// ParseAnalysis decodes a model answer, tolerating text around the JSON object.
func ParseAnalysis(raw string) (domain.FileAnalysis, error) {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.FileAnalysis{}, domain.WrapError(domain.ErrInvalidInput, "parse analysis json", err)
	}

	category, err := domain.ParseCategory(payload.Category)
	if err != nil {
		return domain.FileAnalysis{}, err
	}
	analysis := domain.FileAnalysis{
		Category:    category,
		FileName:    payload.FileName,
		Description: strings.TrimSpace(payload.Description),
		Confidence:  payload.Confidence,
		Reasoning:   strings.TrimSpace(payload.Reasoning),
	}
	if err := analysis.Validate(); err != nil {
		return domain.FileAnalysis{}, err
	}
	return analysis, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func truncateRunes(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
