package groq

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/abelyaev/cv-match/internal/infrastructure/resilience"
)

// Config holds the connection settings for the Groq OpenAI compatible API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Client side throttle. Zero disables it.
	RequestsPerMinute int
	Burst             int
}

// Client is the shared chat transport. Role specific extractors wrap it.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	guard   *resilience.Guard
}

func New(cfg Config, guard *resilience.Guard) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}

	if guard == nil {
		guard = resilience.New(resilience.Config{}, nil)
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		limiter: limiter,
		guard:   guard,
	}
}

// complete runs one chat call. jsonMode asks the model for a single JSON
// object reply. Every attempt, retries included, waits on the limiter.
func (c *Client) complete(ctx context.Context, operation, system, user string, jsonMode bool) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := c.guard.Run(ctx, operation, classifyGroqError, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		resp, err := c.api.CreateChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("completion returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// extractJSONObject trims chatter around the first JSON object in a reply.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
