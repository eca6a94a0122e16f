// Package openai classifies files through any OpenAI-compatible chat endpoint.
// Gemini is reached through its OpenAI compatibility layer with a custom base URL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/document-organizer/internal/core/domain"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm/prompt"
	"github.com/kirillkom/document-organizer/internal/infrastructure/llm/vision"
	"github.com/kirillkom/document-organizer/internal/infrastructure/resilience"
)

const operationChat = "openai.chat"

type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	TextLimit     int
	ImageMaxWidth int
	Executor      *resilience.Executor
	// Operation names the executor circuit; defaults to "openai.chat".
	Operation string
}

type Classifier struct {
	api           *goopenai.Client
	model         string
	textLimit     int
	imageMaxWidth int
	executor      *resilience.Executor
	operation     string
}

func NewClassifier(options Options) *Classifier {
	cfg := goopenai.DefaultConfig(options.APIKey)
	if options.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(options.BaseURL, "/")
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	operation := options.Operation
	if operation == "" {
		operation = operationChat
	}
	return &Classifier{
		api:           goopenai.NewClientWithConfig(cfg),
		model:         options.Model,
		textLimit:     options.TextLimit,
		imageMaxWidth: options.ImageMaxWidth,
		executor:      options.Executor,
		operation:     operation,
	}
}

func (c *Classifier) Analyse(ctx context.Context, req domain.AnalysisRequest) (domain.FileAnalysis, error) {
	user, err := c.userMessage(req)
	if err != nil {
		return domain.FileAnalysis{}, err
	}
	chatReq := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompt.System()},
			user,
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	// Parsing runs inside the retry loop so an unusable answer is asked again.
	var analysis domain.FileAnalysis
	call := func(callCtx context.Context) error {
		resp, callErr := c.api.CreateChatCompletion(callCtx, chatReq)
		if callErr != nil {
			return callErr
		}
		if len(resp.Choices) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, c.operation, errors.New("empty choices"))
		}
		parsed, parseErr := prompt.ParseAnalysis(resp.Choices[0].Message.Content)
		if parseErr != nil {
			return fmt.Errorf("%s analysis: %w", c.operation, parseErr)
		}
		analysis = parsed
		return nil
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, c.operation, call, classifyAnswerError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.FileAnalysis{}, resilience.WrapTemporary(c.operation, err, classifyError)
	}
	if analysis.FileName == "" {
		analysis.FileName = req.FileName
	}
	return analysis, nil
}

func (c *Classifier) userMessage(req domain.AnalysisRequest) (goopenai.ChatCompletionMessage, error) {
	text := prompt.User(req, c.textLimit)
	if req.ImagePath == "" {
		return goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: text}, nil
	}

	img, err := vision.Load(req.ImagePath, c.imageMaxWidth)
	if err != nil {
		return goopenai.ChatCompletionMessage{}, fmt.Errorf("prepare image: %w", err)
	}
	return goopenai.ChatCompletionMessage{
		Role: goopenai.ChatMessageRoleUser,
		MultiContent: []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: text},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    img.DataURI(),
					Detail: goopenai.ImageURLDetailAuto,
				},
			},
		},
	}, nil
}

func statusCode(err error) (int, bool) {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

func classifyError(err error) resilience.ErrorClassification {
	return resilience.ClassifyProviderError(err, statusCode)
}

func classifyAnswerError(err error) resilience.ErrorClassification {
	return resilience.ClassifyAnswerError(err, classifyError)
}
