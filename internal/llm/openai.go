package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Options configures an OpenAIModel.
type Options struct {
	APIKey      string
	BaseURL     string // any OpenAI-compatible endpoint
	Model       string
	Temperature float32
	Timeout     time.Duration // per HTTP request; 0 means no client timeout
}

// OpenAIModel calls a chat-completions endpoint. Gemini, OpenAI and local
// servers that speak the same protocol all work.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIModel builds a client for opts.
func NewOpenAIModel(opts Options) (*OpenAIModel, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm api key is not set (llm.api_key, CRUDGEN_LLM_API_KEY or GOOGLE_API_KEY)")
	}
	if opts.Model == "" {
		return nil, errors.New("llm model is not set")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

// Invoke sends prompt as a single user message. It returns the first
// choice's content, or the raw choice as a map when the content is empty.
func (m *OpenAIModel) Invoke(ctx context.Context, prompt string) (any, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	choice := resp.Choices[0]
	if choice.Message.Content != "" {
		return choice.Message.Content, nil
	}
	return map[string]any{
		"role":          choice.Message.Role,
		"finish_reason": string(choice.FinishReason),
	}, nil
}
