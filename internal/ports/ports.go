package ports

import (
	"context"

	"AINewsletter/internal/domain"
)

// ArticleSource discovers article candidates across all configured sources.
type ArticleSource interface {
	Collect(ctx context.Context) ([]domain.ArticleRef, error)
}

// Extractor downloads an article page and returns its cleaned text.
type Extractor interface {
	Extract(ctx context.Context, ref domain.ArticleRef) (domain.ArticleContent, error)
}

// Summarizer condenses article text through a hosted model.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Humorizer rewrites a summary in a light-hearted tone.
type Humorizer interface {
	Humorize(ctx context.Context, title, summary string) (string, error)
}

// Renderer writes the newsletter document and returns the written path.
type Renderer interface {
	Render(ctx context.Context, doc domain.Newsletter) (string, error)
}
