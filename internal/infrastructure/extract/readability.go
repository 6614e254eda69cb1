// Package extract downloads article pages and reduces them to readable text.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
)

const maxPageBytes = 5 << 20

// Options tunes page fetching and the usable-text threshold.
type Options struct {
	MinBodyChars int
	Timeout      time.Duration
	UserAgent    string
}

// ReadabilityExtractor implements ports.Extractor with go-readability.
type ReadabilityExtractor struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
}

var _ ports.Extractor = (*ReadabilityExtractor)(nil)

// NewReadabilityExtractor wires an HTTP client; a nil client gets opts.Timeout.
func NewReadabilityExtractor(client *http.Client, opts Options, log *slog.Logger) *ReadabilityExtractor {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &ReadabilityExtractor{client: client, opts: opts, logger: log}
}

// Extract fetches ref.URL and returns the cleaned article body. The title
// found by readability replaces the listing anchor text when present.
func (e *ReadabilityExtractor) Extract(ctx context.Context, ref domain.ArticleRef) (domain.ArticleContent, error) {
	pageURL, err := url.Parse(ref.URL)
	if err != nil {
		return domain.ArticleContent{}, e.fail(ref, domain.ExtractionUnparseable, fmt.Errorf("invalid url: %w", err))
	}

	raw, err := e.fetch(ctx, ref.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.ArticleContent{}, ctxErr
		}
		return domain.ArticleContent{}, e.fail(ref, domain.ExtractionNetwork, err)
	}

	article, err := readability.FromReader(strings.NewReader(raw), pageURL)
	if err != nil {
		return domain.ArticleContent{}, e.fail(ref, domain.ExtractionUnparseable, err)
	}

	body := cleanText(article.TextContent)
	if n := utf8.RuneCountInString(body); n < e.opts.MinBodyChars {
		return domain.ArticleContent{}, e.fail(ref, domain.ExtractionEmpty,
			fmt.Errorf("body has %d characters, need %d", n, e.opts.MinBodyChars))
	}

	if title := strings.Join(strings.Fields(article.Title), " "); title != "" {
		ref.Title = title
	}

	if e.logger != nil {
		e.logger.Debug("article extracted", "url", ref.URL, "chars", len(body))
	}
	return domain.ArticleContent{Ref: ref, Body: body}, nil
}

func (e *ReadabilityExtractor) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if e.opts.UserAgent != "" {
		req.Header.Set("User-Agent", e.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(payload), nil
}

func (e *ReadabilityExtractor) fail(ref domain.ArticleRef, reason domain.ExtractionReason, err error) error {
	return &domain.ExtractionError{URL: ref.URL, Reason: reason, Err: err}
}

// cleanText collapses whitespace inside lines and drops blank lines, keeping
// paragraph breaks as single newlines.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
