package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/angelmondragon/dmpilot-backend/pkg/config"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

var (
	errAPIKeyRequired = errors.New("openai api key is required")

	// ErrMalformedCompletion reports a completion with no usable content.
	ErrMalformedCompletion = errors.New("malformed completion response")
)

// Message is one prior turn handed to the model.
type Message struct {
	Role    string
	Content string
}

// Completion is the trimmed-down result the reply pipeline consumes.
type Completion struct {
	Content     string
	TotalTokens int
}

// Client wraps the OpenAI chat completion API with configured defaults.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewClient builds an OpenAI client from config.
func NewClient(ctx context.Context, cfg config.OpenAIConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("openai client initialized (%s)", model))
	}

	return &Client{
		api:         openai.NewClient(apiKey),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		timeout:     timeout,
	}, nil
}

// Complete runs one chat completion with the configured model under a bounded
// timeout. A response without usable content fails with
// ErrMalformedCompletion so callers can treat it like any provider outage.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []Message) (*Completion, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("openai client not initialized")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrMalformedCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrMalformedCompletion
	}

	return &Completion{
		Content:     content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
