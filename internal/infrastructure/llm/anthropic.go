package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"AINewsletter/internal/config"
	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
)

const defaultAnthropicEndpoint = "https://api.anthropic.com/"

// AnthropicClient implements ports.Humorizer with the Messages API.
type AnthropicClient struct {
	client anthropic.Client
	cfg    config.HumorConfig
	logger *slog.Logger
}

var _ ports.Humorizer = (*AnthropicClient)(nil)

// NewAnthropicHumorizer builds a client for the humor stage.
func NewAnthropicHumorizer(cfg config.HumorConfig, httpClient *http.Client, log *slog.Logger) *AnthropicClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultAnthropicEndpoint
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(endpoint),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		logger: log,
	}
}

// Humorize rewrites summary with the configured persona and temperature.
func (c *AnthropicClient) Humorize(ctx context.Context, title, summary string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(c.cfg.SystemPrompt)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(HumorPrompt(title, summary))),
		},
		Temperature: anthropic.Float(c.cfg.Temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", domain.ClassifyHTTPStatus(domain.StageHumorize, apiErr.StatusCode, fmt.Errorf("anthropic API error: %w", err))
		}
		return "", domain.ClassifyCallError(domain.StageHumorize, fmt.Errorf("anthropic API error: %w", err))
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.NewPermanent(domain.StageHumorize, errors.New("no response from anthropic"))
	}

	if c.logger != nil {
		c.logger.Debug("humor received", "model", c.cfg.Model, "chars", len(text))
	}
	return text, nil
}
