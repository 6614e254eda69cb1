package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"AINewsletter/internal/config"
	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
	"AINewsletter/internal/textutil"
)

// OpenAIClient implements ports.Summarizer and ports.Humorizer on top of the
// chat completions API. Retries are left to the caller.
type OpenAIClient struct {
	client  openai.Client
	humor   config.HumorConfig
	summary config.SummarizerConfig
	logger  *slog.Logger
}

var (
	_ ports.Summarizer = (*OpenAIClient)(nil)
	_ ports.Humorizer  = (*OpenAIClient)(nil)
)

// NewOpenAIHumorizer builds a client for the humor stage.
func NewOpenAIHumorizer(cfg config.HumorConfig, httpClient *http.Client, log *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(openAIOptions(cfg.APIKey, cfg.Endpoint, httpClient)...),
		humor:  cfg,
		logger: log,
	}
}

// NewOpenAISummarizer builds a client for the summarization stage.
func NewOpenAISummarizer(cfg config.SummarizerConfig, httpClient *http.Client, log *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClient(openAIOptions(cfg.APIKey, cfg.Endpoint, httpClient)...),
		summary: cfg,
		logger:  log,
	}
}

const defaultOpenAIEndpoint = "https://api.openai.com/v1/"

// openAIOptions pins key and endpoint so the SDK never falls back to its own
// environment lookup.
func openAIOptions(apiKey, endpoint string, httpClient *http.Client) []option.RequestOption {
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(endpoint),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return opts
}

// Humorize rewrites summary with the configured persona and temperature.
func (c *OpenAIClient) Humorize(ctx context.Context, title, summary string) (string, error) {
	text, err := c.complete(ctx, domain.StageHumorize, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.humor.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(c.humor.SystemPrompt)),
			openai.UserMessage(HumorPrompt(title, summary)),
		},
		Temperature:         openai.Float(c.humor.Temperature),
		MaxCompletionTokens: openai.Int(int64(c.humor.MaxTokens)),
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Summarize asks the chat model for a short summary of text.
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	input := textutil.Truncate(text, c.summary.MaxInputChars)
	if n := utf8.RuneCountInString(input); n < c.summary.MinInputChars {
		return "", domain.NewPermanent(domain.StageSummarize,
			fmt.Errorf("input has %d characters, need %d", n, c.summary.MinInputChars))
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.summary.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarySystemPrompt),
			openai.UserMessage(SummaryPrompt(input, c.summary.MaxSentences)),
		},
		Temperature: openai.Float(0),
	}
	if c.summary.MaxLength > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.summary.MaxLength) * 2)
	}

	out, err := c.complete(ctx, domain.StageSummarize, params)
	if err != nil {
		return "", err
	}
	return textutil.Clamp(out, c.summary.MaxSentences, c.summary.MaxChars), nil
}

func (c *OpenAIClient) complete(ctx context.Context, stage domain.Stage, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAI(stage, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewPermanent(stage, errors.New("no response from openai"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", domain.NewPermanent(stage, errors.New("openai returned empty content"))
	}

	if c.logger != nil {
		c.logger.Debug("completion received", "stage", stage, "model", params.Model, "chars", len(content))
	}
	return content, nil
}

func classifyOpenAI(stage domain.Stage, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return domain.ClassifyHTTPStatus(stage, apiErr.StatusCode, fmt.Errorf("openai API error: %w", err))
	}
	return domain.ClassifyCallError(stage, fmt.Errorf("openai API error: %w", err))
}
