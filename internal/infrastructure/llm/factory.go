// Package llm selects the classification provider.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/document-organizer/internal/core/ports"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm/openai"
	"github.com/kirillkom/document-organizer/internal/infrastructure/resilience"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultOllamaURL     = "http://localhost:11434"
)

type Settings struct {
	Provider      string
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiBaseURL string
	OllamaURL     string
	Timeout       time.Duration
	TextLimit     int
	ImageMaxWidth int
}

// NewClassifier builds the classifier for settings.Provider.
func NewClassifier(settings Settings, executor *resilience.Executor) (ports.Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Provider)) {
	case ProviderGemini:
		baseURL := settings.GeminiBaseURL
		if baseURL == "" {
			baseURL = DefaultGeminiBaseURL
		}
		return openai.NewClassifier(openai.Options{
			APIKey:        settings.GeminiAPIKey,
			BaseURL:       baseURL,
			Model:         settings.Model,
			Timeout:       settings.Timeout,
			TextLimit:     settings.TextLimit,
			ImageMaxWidth: settings.ImageMaxWidth,
			Executor:      executor,
			Operation:     "gemini.chat",
		}), nil
	case ProviderOpenAI:
		return openai.NewClassifier(openai.Options{
			APIKey:        settings.OpenAIAPIKey,
			BaseURL:       settings.OpenAIBaseURL,
			Model:         settings.Model,
			Timeout:       settings.Timeout,
			TextLimit:     settings.TextLimit,
			ImageMaxWidth: settings.ImageMaxWidth,
			Executor:      executor,
		}), nil
	case ProviderOllama:
		baseURL := settings.OllamaURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		options := ollama.Options{
			Timeout:       settings.Timeout,
			TextLimit:     settings.TextLimit,
			ImageMaxWidth: settings.ImageMaxWidth,
			Executor:      executor,
		}
		return ollama.NewClassifier(ollama.New(baseURL, settings.Model, options), options), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", settings.Provider)
	}
}
