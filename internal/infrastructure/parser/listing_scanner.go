package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsletter/internal/domain"
	"AINewsletter/internal/scanner"
)

// listingSkipSegments are path segments that mark navigation pages rather
// than articles.
var listingSkipSegments = map[string]struct{}{
	"category": {}, "categories": {}, "tag": {}, "tags": {}, "topic": {},
	"author": {}, "authors": {}, "page": {}, "search": {}, "about": {},
	"contact": {}, "privacy": {}, "terms": {}, "login": {}, "subscribe": {},
}

// ListingScanner discovers article links on a publication's listing page.
type ListingScanner struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ scanner.Scanner = (*ListingScanner)(nil)

// NewListingScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewListingScanner(client *http.Client, userAgent string, log *slog.Logger) *ListingScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ListingScanner{client: client, userAgent: userAgent, logger: log}
}

// Name identifies the strategy inside the registry.
func (l *ListingScanner) Name() string {
	return "html"
}

// Scan fetches the listing page and returns article-looking links in page
// order, at most req.Limit of them.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleRef, error) {
	base, err := url.Parse(req.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url %s: %w", req.Source.URL, err)
	}

	doc, err := l.fetchDocument(ctx, req.Source.URL)
	if err != nil {
		return nil, err
	}

	refs := extractLinks(doc, base, req.Source.Name, req.Limit)
	if l.logger != nil {
		l.logger.Debug("listing scanned", "source", req.Source.Name, "links", len(refs))
	}
	return refs, nil
}

func (l *ListingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	return doc, nil
}

func extractLinks(doc *goquery.Document, base *url.URL, sourceName string, limit int) []domain.ArticleRef {
	var (
		refs []domain.ArticleRef
		seen = map[string]struct{}{}
	)
	basePath := strings.TrimRight(base.Path, "/")

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(refs) >= limit {
			return false
		}

		href, _ := a.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !strings.EqualFold(link.Hostname(), base.Hostname()) {
			return true
		}
		if !looksLikeArticle(link.Path, basePath) {
			return true
		}

		title := anchorTitle(a)
		if title == "" {
			return true
		}

		key, err := NormalizeURL(link.String())
		if err != nil {
			return true
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		refs = append(refs, domain.ArticleRef{
			URL:         link.String(),
			Title:       title,
			Source:      sourceName,
			PublishedAt: anchorPublishedAt(a),
		})
		return true
	})

	return refs
}

func looksLikeArticle(path, listingPath string) bool {
	path = strings.TrimRight(path, "/")
	if path == "" || path == listingPath {
		return false
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, seg := range segments {
		if _, skip := listingSkipSegments[strings.ToLower(seg)]; skip {
			return false
		}
	}

	last := segments[len(segments)-1]
	return len(segments) >= 3 || (strings.Count(last, "-") >= 2 && len(last) >= 12)
}

func anchorTitle(a *goquery.Selection) string {
	title := strings.Join(strings.Fields(a.Text()), " ")
	if title == "" {
		if t, ok := a.Attr("title"); ok {
			title = strings.Join(strings.Fields(t), " ")
		}
	}
	if len([]rune(title)) < 10 {
		return ""
	}
	return title
}

func anchorPublishedAt(a *goquery.Selection) *time.Time {
	container := a.Closest("article")
	if container.Length() == 0 {
		container = a.Parent()
	}
	raw, ok := container.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}
