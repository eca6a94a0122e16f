package domain

import "time"

type FiledEntry struct {
	OriginalTitle string           `json:"nom_original"`
	FinalTitle    string           `json:"nom_final"`
	Category      Category         `json:"categorie"`
	Confidence    float64          `json:"confiance"`
	Status        ProcessingStatus `json:"statut"`
}

type ErrorEntry struct {
	OriginalTitle string `json:"nom_original"`
	ErrorMessage  string `json:"error_message"`
}

// Report is derived once from the full result sequence of a batch.
type Report struct {
	RunID      string         `json:"run_id"`
	ExecutedAt time.Time      `json:"date_execution"`
	TotalFiles int            `json:"total_fichiers"`
	Categories map[string]int `json:"classes"`
	Files      []FiledEntry   `json:"fichiers"`
	Errors     []ErrorEntry   `json:"erreurs"`
}

func (r Report) ReviewCount() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == StatusToBeChecked {
			n++
		}
	}
	return n
}
