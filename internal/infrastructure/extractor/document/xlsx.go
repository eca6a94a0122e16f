package document

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXlsx renders every sheet as "Sheet: <name>" followed by one line per row.
func extractXlsx(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			b.WriteString(joinNonEmpty(row))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func joinNonEmpty(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		parts = append(parts, cell)
	}
	return strings.Join(parts, " ")
}
