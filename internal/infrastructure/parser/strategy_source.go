package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
	"AINewsletter/internal/scanner"
)

// SourceOptions bounds what StrategySource returns.
type SourceOptions struct {
	MaxArticles  int
	MaxPerSource int
	// MaxAge drops refs whose known publication time is older than now-MaxAge.
	// Zero disables the filter. Refs without a date are always kept.
	MaxAge time.Duration
	Now    func() time.Time
}

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []domain.Source
	opts     SourceOptions
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured sources.
func NewStrategySource(reg *scanner.Registry, sources []domain.Source, opts SourceOptions, log *slog.Logger) *StrategySource {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &StrategySource{
		registry: reg,
		sources:  sources,
		opts:     opts,
		logger:   log,
	}
}

// Collect scans every source in configuration order and returns a
// deduplicated list of at most MaxArticles refs in discovery order. A failing
// source is logged and skipped; when every source fails the result is empty
// and the error is nil. Only context cancellation is returned as an error.
func (s *StrategySource) Collect(ctx context.Context) ([]domain.ArticleRef, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("collect", "sources", len(s.sources), "max_articles", s.opts.MaxArticles)

	var (
		collected []domain.ArticleRef
		seen      = map[string]struct{}{}
		cutoff    time.Time
	)
	if s.opts.MaxAge > 0 {
		cutoff = s.opts.Now().Add(-s.opts.MaxAge)
	}

	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.full(collected) {
			break
		}

		refs, err := s.scanSource(ctx, src)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.warn("source skipped", "source", src.Name, "url", src.URL, "error", err)
			continue
		}

		kept := 0
		for _, ref := range refs {
			if s.full(collected) {
				break
			}
			key, err := NormalizeURL(ref.URL)
			if err != nil {
				s.debug("invalid article url", "source", src.Name, "url", ref.URL, "error", err)
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			if !cutoff.IsZero() && ref.PublishedAt != nil && ref.PublishedAt.Before(cutoff) {
				continue
			}
			seen[key] = struct{}{}
			if ref.Source == "" {
				ref.Source = src.Name
			}
			collected = append(collected, ref)
			kept++
		}
		s.debug("source produced articles", "source", src.Name, "found", len(refs), "kept", kept)
	}

	s.debug("collect done", "total_articles", len(collected))
	return collected, nil
}

func (s *StrategySource) scanSource(ctx context.Context, src domain.Source) ([]domain.ArticleRef, error) {
	strategy, err := s.registry.Resolve(src.Scanner)
	if err != nil {
		return nil, &domain.SourceFetchError{Source: src.Name, Err: err}
	}

	refs, err := strategy.Scan(ctx, scanner.Request{Source: src, Limit: s.opts.MaxPerSource})
	if err != nil {
		var sfe *domain.SourceFetchError
		if errors.As(err, &sfe) {
			return nil, err
		}
		return nil, &domain.SourceFetchError{Source: src.Name, Err: err}
	}
	return refs, nil
}

func (s *StrategySource) full(collected []domain.ArticleRef) bool {
	return s.opts.MaxArticles > 0 && len(collected) >= s.opts.MaxArticles
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
