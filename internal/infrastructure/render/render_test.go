package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsletter/internal/config"
	"AINewsletter/internal/domain"
)

var generatedAt = time.Date(2025, time.November, 8, 9, 30, 0, 0, time.UTC)

func sampleDoc() domain.Newsletter {
	published := time.Date(2025, time.November, 7, 18, 0, 0, 0, time.UTC)
	return domain.Newsletter{
		Title:       "AI News with a Twist",
		GeneratedAt: generatedAt,
		Articles: []domain.Summary{
			{
				Ref:   domain.ArticleRef{URL: "https://example.com/a", Title: "Model ships", Source: "Example", PublishedAt: &published},
				Text:  "A model shipped.",
				Humor: "A model shipped, and it brought snacks.",
			},
			{
				Ref:  domain.ArticleRef{URL: "https://news.test/b", Title: "  ", Source: "News [Test]"},
				Text: "Plain summary.",
			},
		},
	}
}

func TestMarkdownLayout(t *testing.T) {
	t.Parallel()

	want := "# AI News with a Twist - 2025-11-08\n\n" +
		"## Model ships\n\n" +
		"A model shipped, and it brought snacks.\n\n" +
		"*Source: [Example](https://example.com/a) · 2025-11-07*\n\n" +
		"---\n\n" +
		"## Untitled Article\n\n" +
		"Plain summary.\n\n" +
		"*Source: [News \\[Test\\]](https://news.test/b)*\n\n" +
		"---\n\n" +
		"*Generated on 2025-11-08 09:30:00 UTC by AI News Summarizer*\n"

	assert.Equal(t, want, Markdown(sampleDoc(), time.UTC))
}

func TestMarkdownEmptyNotice(t *testing.T) {
	t.Parallel()

	doc := domain.Newsletter{Title: "Daily", GeneratedAt: generatedAt}
	out := Markdown(doc, time.UTC)
	assert.Contains(t, out, "_No articles today.")
	assert.NotContains(t, out, "## ")
}

func TestHTMLEscapesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	doc := sampleDoc()
	doc.Articles[0].Ref.Title = "Robots <3 humans"
	doc.Articles[0].Humor = "Line one.\n\nLine two."

	out, err := HTML(doc, time.UTC)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<title>AI News with a Twist - 2025-11-08</title>")
	assert.Contains(t, page, "<h2>Robots &lt;3 humans</h2>")
	assert.Contains(t, page, "<p>Line one.</p>\n<p>Line two.</p>")
	assert.Contains(t, page, `<a href="https://example.com/a"`)
	assert.Contains(t, page, "Generated on 2025-11-08 09:30:00 UTC by AI News Summarizer")
	assert.Less(t, strings.Index(page, "Robots"), strings.Index(page, "Untitled Article"))
}

func TestRenderWritesDatedFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	r := NewFileRenderer(Options{Format: config.FormatMarkdown, Directory: dir}, nil)

	path, err := r.Render(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ai_news_2025-11-08.md"), path)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Markdown(sampleDoc(), time.UTC), string(first))

	_, err = r.Render(context.Background(), sampleDoc())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestRenderExplicitPathAndHTML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "newsletter.html")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	r := NewFileRenderer(Options{Format: config.FormatHTML, Path: path}, nil)
	got, err := r.Render(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, path, got)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "<!DOCTYPE html>"))
}

func TestRenderUsesLocationForDate(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+10", 10*60*60)
	r := NewFileRenderer(Options{Directory: "out", Location: loc}, nil)
	late := time.Date(2025, time.November, 8, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "ai_news_2025-11-09.md"), r.Path(late))

	html := NewFileRenderer(Options{Format: config.FormatHTML, Directory: "out", Location: loc}, nil)
	assert.Equal(t, filepath.Join("out", "ai_news_2025-11-09.html"), html.Path(late))
}

func TestRenderReportsWriteFailure(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	r := NewFileRenderer(Options{Directory: filepath.Join(blocker, "sub")}, nil)
	_, err := r.Render(context.Background(), sampleDoc())

	var we *domain.OutputWriteError
	require.ErrorAs(t, err, &we)
	assert.Contains(t, we.Path, "ai_news_2025-11-08.md")
}

func TestRenderCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileRenderer(Options{Directory: dir}, nil).Render(ctx, sampleDoc())
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
