package document

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

func extractPlainText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrUnsupportedContent, "read text file", fmt.Errorf("not valid utf-8"))
	}
	return string(raw), nil
}
