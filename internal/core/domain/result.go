package domain

type ProcessingStatus string

const (
	StatusSuccess     ProcessingStatus = "success"
	StatusToBeChecked ProcessingStatus = "to_be_checked"
	StatusError       ProcessingStatus = "error"
)

// ProcessingResult records the outcome for a single input file.
type ProcessingResult struct {
	OriginalTitle string           `json:"original_title"`
	FinalTitle    string           `json:"final_title,omitempty"`
	Category      Category         `json:"category,omitempty"`
	Confidence    float64          `json:"confidence"`
	Status        ProcessingStatus `json:"status"`
	ErrorMessage  string           `json:"error_message,omitempty"`
}

func NewFiledResult(original, final string, analysis FileAnalysis, status ProcessingStatus) ProcessingResult {
	return ProcessingResult{
		OriginalTitle: original,
		FinalTitle:    final,
		Category:      analysis.Category,
		Confidence:    analysis.Confidence,
		Status:        status,
	}
}

func NewErrorResult(original string, err error) ProcessingResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ProcessingResult{
		OriginalTitle: original,
		Status:        StatusError,
		ErrorMessage:  msg,
	}
}

func (r ProcessingResult) Filed() bool {
	return r.Status == StatusSuccess || r.Status == StatusToBeChecked
}
