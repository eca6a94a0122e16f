package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-organizer/internal/core/domain"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm/prompt"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm/vision"
	"github.com/kirillkom/document-organizer/internal/infrastructure/resilience"
)

const operationGenerate = "ollama.generate"

type Options struct {
	Timeout       time.Duration
	TextLimit     int
	ImageMaxWidth int
	Executor      *resilience.Executor
}

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

// Classifier analyses files with a local Ollama model. Images go through the
// generate endpoint's images field, so the model must be multimodal.
type Classifier struct {
	client        *Client
	textLimit     int
	imageMaxWidth int
}

func NewClassifier(client *Client, options Options) *Classifier {
	return &Classifier{
		client:        client,
		textLimit:     options.TextLimit,
		imageMaxWidth: options.ImageMaxWidth,
	}
}

func (c *Classifier) Analyse(ctx context.Context, req domain.AnalysisRequest) (domain.FileAnalysis, error) {
	reqBody := map[string]any{
		"model":  c.client.model,
		"system": prompt.System(),
		"prompt": prompt.User(req, c.textLimit),
		"stream": false,
		"format": "json",
	}
	if req.ImagePath != "" {
		img, err := vision.Load(req.ImagePath, c.imageMaxWidth)
		if err != nil {
			return domain.FileAnalysis{}, fmt.Errorf("prepare image: %w", err)
		}
		reqBody["images"] = []string{img.Base64()}
	}

	analysis, err := c.client.generate(ctx, reqBody)
	if err != nil {
		return domain.FileAnalysis{}, err
	}
	if analysis.FileName == "" {
		analysis.FileName = req.FileName
	}
	return analysis, nil
}

// generate calls the model and parses its verdict inside the retry loop, so a
// truncated or off-list answer is asked again.
func (c *Client) generate(ctx context.Context, reqBody map[string]any) (domain.FileAnalysis, error) {
	var analysis domain.FileAnalysis
	call := func(callCtx context.Context) error {
		var response struct {
			Response string `json:"response"`
		}
		if err := c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate"); err != nil {
			return err
		}
		parsed, err := prompt.ParseAnalysis(strings.TrimSpace(response.Response))
		if err != nil {
			return fmt.Errorf("ollama analysis: %w", err)
		}
		analysis = parsed
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operationGenerate, call, classifyGenerateError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.FileAnalysis{}, wrapTemporaryIfNeeded(operationGenerate, err)
	}
	return analysis, nil
}
