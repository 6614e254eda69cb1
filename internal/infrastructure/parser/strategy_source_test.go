package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsletter/internal/domain"
	"AINewsletter/internal/logging"
	"AINewsletter/internal/scanner"
)

type stubScanner struct {
	name    string
	results map[string][]domain.ArticleRef
	errs    map[string]error
	limits  []int
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(_ context.Context, req scanner.Request) ([]domain.ArticleRef, error) {
	s.limits = append(s.limits, req.Limit)
	if err := s.errs[req.Source.Name]; err != nil {
		return nil, err
	}
	return s.results[req.Source.Name], nil
}

func stubRef(url, source string) domain.ArticleRef {
	return domain.ArticleRef{URL: url, Title: "Title of " + url, Source: source}
}

func TestCollectDeduplicatesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub", results: map[string][]domain.ArticleRef{
		"a": {stubRef("https://a.com/one", "a"), stubRef("https://a.com/two?utm=1", "a")},
		"b": {stubRef("https://A.com/two/", "b"), stubRef("https://b.com/three", "")},
	}}
	src := NewStrategySource(scanner.NewRegistry(stub), []domain.Source{
		{Name: "a", Scanner: "stub"},
		{Name: "b", Scanner: "stub"},
	}, SourceOptions{MaxArticles: 10, MaxPerSource: 5}, logging.Discard())

	refs, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "https://a.com/one", refs[0].URL)
	assert.Equal(t, "https://a.com/two?utm=1", refs[1].URL)
	assert.Equal(t, "https://b.com/three", refs[2].URL)
	assert.Equal(t, "b", refs[2].Source, "missing source name is filled from config")
	assert.Equal(t, []int{5, 5}, stub.limits)
}

func TestCollectRespectsMaxArticles(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub", results: map[string][]domain.ArticleRef{
		"a": {stubRef("https://a.com/1", "a"), stubRef("https://a.com/2", "a")},
		"b": {stubRef("https://b.com/3", "b")},
	}}
	src := NewStrategySource(scanner.NewRegistry(stub), []domain.Source{
		{Name: "a", Scanner: "stub"},
		{Name: "b", Scanner: "stub"},
	}, SourceOptions{MaxArticles: 1}, nil)

	refs, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "https://a.com/1", refs[0].URL)
	assert.Len(t, stub.limits, 1, "scanning stops once the cap is reached")
}

func TestCollectSkipsFailingSources(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{
		name:    "stub",
		results: map[string][]domain.ArticleRef{"ok": {stubRef("https://ok.com/story", "ok")}},
		errs:    map[string]error{"down": errors.New("connection refused")},
	}
	src := NewStrategySource(scanner.NewRegistry(stub), []domain.Source{
		{Name: "down", Scanner: "stub"},
		{Name: "unknown", Scanner: "gopher"},
		{Name: "ok", Scanner: "stub"},
	}, SourceOptions{MaxArticles: 5}, logging.Discard())

	refs, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "https://ok.com/story", refs[0].URL)
}

func TestCollectAllSourcesFailIsEmptyNotError(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub", errs: map[string]error{
		"a": errors.New("timeout"),
		"b": errors.New("malformed listing"),
	}}
	src := NewStrategySource(scanner.NewRegistry(stub), []domain.Source{
		{Name: "a", Scanner: "stub"},
		{Name: "b", Scanner: "stub"},
	}, SourceOptions{MaxArticles: 5}, nil)

	refs, err := src.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestCollectDropsStaleArticles(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-24 * time.Hour)
	stale := now.Add(-5 * 24 * time.Hour)

	stub := &stubScanner{name: "stub", results: map[string][]domain.ArticleRef{
		"a": {
			{URL: "https://a.com/fresh", Title: "fresh", PublishedAt: &fresh},
			{URL: "https://a.com/stale", Title: "stale", PublishedAt: &stale},
			{URL: "https://a.com/undated", Title: "undated"},
		},
	}}
	src := NewStrategySource(scanner.NewRegistry(stub), []domain.Source{{Name: "a", Scanner: "stub"}},
		SourceOptions{MaxArticles: 5, MaxAge: 72 * time.Hour, Now: func() time.Time { return now }}, nil)

	refs, err := src.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "https://a.com/fresh", refs[0].URL)
	assert.Equal(t, "https://a.com/undated", refs[1].URL)
}

func TestCollectStopsOnCancel(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{name: "stub"}
	src := NewStrategySource(scanner.NewRegistry(stub), []domain.Source{{Name: "a", Scanner: "stub"}},
		SourceOptions{MaxArticles: 5}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
