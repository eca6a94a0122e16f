package domain

const (
	DefaultConfidenceThreshold = 0.7

	ReviewFolder = "to_be_verified"
	ErrorFolder  = "Errors"
)

// BatchSettings is the immutable run configuration handed to the core.
type BatchSettings struct {
	InputDir            string  `json:"input_dir"`
	OutputDir           string  `json:"output_dir"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}
