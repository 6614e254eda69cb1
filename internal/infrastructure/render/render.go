// Package render turns a newsletter into a Markdown or HTML file.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"AINewsletter/internal/config"
	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05 MST"
	untitled        = "Untitled Article"
	emptyNotice     = "No articles today. The robots are resting."
	generatorName   = "AI News Summarizer"
)

// Options selects the output format and location.
type Options struct {
	Format    string
	Directory string
	// Path overrides Directory and the dated file name.
	Path     string
	Location *time.Location
}

// FileRenderer implements ports.Renderer by writing one file per run.
type FileRenderer struct {
	opts   Options
	logger *slog.Logger
}

var _ ports.Renderer = (*FileRenderer)(nil)

// NewFileRenderer returns a renderer; an unknown format falls back to Markdown.
func NewFileRenderer(opts Options, log *slog.Logger) *FileRenderer {
	if opts.Format != config.FormatHTML {
		opts.Format = config.FormatMarkdown
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &FileRenderer{opts: opts, logger: log}
}

// Render writes doc and returns the path of the written file. An existing
// file is replaced atomically; on failure no partial file is left behind.
func (r *FileRenderer) Render(ctx context.Context, doc domain.Newsletter) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc.GeneratedAt = doc.GeneratedAt.In(r.opts.Location)
	content, err := r.Content(doc)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", r.opts.Format, err)
	}

	path := r.Path(doc.GeneratedAt)
	if err := writeAtomic(path, content); err != nil {
		return "", &domain.OutputWriteError{Path: path, Err: err}
	}

	if r.logger != nil {
		r.logger.Debug("newsletter written", "path", path, "bytes", len(content), "articles", len(doc.Articles))
	}
	return path, nil
}

// Content renders doc without touching the filesystem.
func (r *FileRenderer) Content(doc domain.Newsletter) ([]byte, error) {
	if r.opts.Format == config.FormatHTML {
		return HTML(doc, r.opts.Location)
	}
	return []byte(Markdown(doc, r.opts.Location)), nil
}

// Path resolves the output file for a run started at generatedAt.
func (r *FileRenderer) Path(generatedAt time.Time) string {
	if r.opts.Path != "" {
		return r.opts.Path
	}
	name := "ai_news_" + generatedAt.In(r.opts.Location).Format(dateLayout) + config.Extension(r.opts.Format)
	return filepath.Join(r.opts.Directory, name)
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
