package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the DeepSeek endpoint; it is OpenAI-compatible.
const DefaultBaseURL = "https://api.deepseek.com"

// Config configures the upstream client.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds the whole upstream request including the body read.
	// Zero means no timeout.
	Timeout time.Duration
}

// OpenAIClient streams chat completions from an OpenAI-compatible endpoint.
type OpenAIClient struct {
	api *openai.Client
}

// NewOpenAIClient builds a client for the configured endpoint.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	c := openai.DefaultConfig(cfg.APIKey)
	c.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		c.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(c)}
}

// Stream opens an upstream streaming completion and forwards every text
// delta to w as soon as it is decoded. The full reply is never buffered
// ahead of emission; only the assembled copy is returned for the caller to
// persist. The stream ends cleanly on the upstream end-of-stream sentinel.
func (c *OpenAIClient) Stream(ctx context.Context, messages []Message, opts Options, w io.Writer) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		Temperature: opts.Temperature,
		Stream:      true,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("read stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if _, err := w.Write([]byte(delta)); err != nil {
			return full.String(), fmt.Errorf("write stream chunk: %w", err)
		}
	}
	return full.String(), nil
}
