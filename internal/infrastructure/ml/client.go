package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"AINewsletter/internal/config"
	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
	"AINewsletter/internal/textutil"
)

// Client calls a hosted summarization model on the Hugging Face Inference API.
type Client struct {
	endpoint string
	apiKey   string
	cfg      config.SummarizerConfig
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient creates a reusable client for cfg.Model. Call timeouts come from
// the context; a nil httpClient gets a client without its own timeout.
func NewClient(cfg config.SummarizerConfig, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Model,
		apiKey:   cfg.APIKey,
		cfg:      cfg,
		http:     httpClient,
		logger:   log,
	}
}

type summarizeRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters summarizeParams `json:"parameters"`
	Options    map[string]any  `json:"options,omitempty"`
}

type summarizeParams struct {
	MinLength int  `json:"min_length,omitempty"`
	MaxLength int  `json:"max_length,omitempty"`
	DoSample  bool `json:"do_sample"`
}

type summarizeResult struct {
	SummaryText string `json:"summary_text"`
}

// Summarize truncates text to the configured input size, asks the model for
// a summary and clamps the answer to the configured sentence and char bounds.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	input := textutil.Truncate(text, c.cfg.MaxInputChars)
	if n := utf8.RuneCountInString(input); n < c.cfg.MinInputChars {
		return "", domain.NewPermanent(domain.StageSummarize,
			fmt.Errorf("input has %d characters, need %d", n, c.cfg.MinInputChars))
	}

	payload := summarizeRequest{
		Inputs: input,
		Parameters: summarizeParams{
			MinLength: c.cfg.MinLength,
			MaxLength: c.cfg.MaxLength,
		},
		Options: map[string]any{"wait_for_model": true},
	}

	var results []summarizeResult
	if err := c.post(ctx, payload, &results); err != nil {
		return "", err
	}

	if len(results) == 0 || strings.TrimSpace(results[0].SummaryText) == "" {
		return "", domain.NewPermanent(domain.StageSummarize, errors.New("model returned no summary"))
	}

	summary := textutil.Clamp(results[0].SummaryText, c.cfg.MaxSentences, c.cfg.MaxChars)
	if c.logger != nil {
		c.logger.Debug("summary received", "model", c.cfg.Model, "input_chars", utf8.RuneCountInString(input), "summary_chars", utf8.RuneCountInString(summary))
	}
	return summary, nil
}

func (c *Client) post(ctx context.Context, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.NewPermanent(domain.StageSummarize, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.NewPermanent(domain.StageSummarize, fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ClassifyCallError(domain.StageSummarize, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ClassifyHTTPStatus(domain.StageSummarize, resp.StatusCode,
			fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail))))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return domain.ClassifyCallError(domain.StageSummarize, fmt.Errorf("decode response: %w", err))
	}

	return nil
}
