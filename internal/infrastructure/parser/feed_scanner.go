package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"AINewsletter/internal/domain"
	"AINewsletter/internal/scanner"
)

// FeedScanner reads RSS and Atom feeds.
type FeedScanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewFeedScanner(client *http.Client, userAgent string, log *slog.Logger) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedScanner{client: client, userAgent: userAgent, logger: log}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan downloads and parses the feed, keeping entry order.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleRef, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.Source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	httpReq.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	refs := make([]domain.ArticleRef, 0, len(feed.Items))
	for _, item := range feed.Items {
		if req.Limit > 0 && len(refs) >= req.Limit {
			break
		}
		link := itemLink(item)
		if link == "" {
			continue
		}
		refs = append(refs, domain.ArticleRef{
			URL:         link,
			Title:       strings.TrimSpace(item.Title),
			Source:      req.Source.Name,
			PublishedAt: itemPublishedAt(item),
		})
	}

	if f.logger != nil {
		f.logger.Debug("feed scanned", "source", req.Source.Name, "items", len(feed.Items), "kept", len(refs))
	}
	return refs, nil
}

// itemLink prefers the explicit link and falls back to a URL-shaped GUID.
func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

func itemPublishedAt(item *gofeed.Item) *time.Time {
	ts := item.PublishedParsed
	if ts == nil {
		ts = item.UpdatedParsed
	}
	if ts == nil {
		return nil
	}
	utc := ts.UTC()
	return &utc
}
