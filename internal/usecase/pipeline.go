package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"AINewsletter/internal/domain"
	"AINewsletter/internal/ports"
	"AINewsletter/internal/retry"
	"AINewsletter/internal/throttle"
)

// HumorPolicy decides what happens to an article whose humor rewrite failed.
type HumorPolicy string

const (
	HumorFallback HumorPolicy = "fallback"
	HumorDrop     HumorPolicy = "drop"
)

// Options tunes a pipeline run.
type Options struct {
	Title       string
	Workers     int
	CallTimeout time.Duration
	Retry       retry.Policy
	HumorPolicy HumorPolicy
	WriteEmpty  bool

	SummarizerGate *throttle.Gate
	HumorGate      *throttle.Gate

	// Now is read once per run; every timestamp in the output derives from it.
	Now func() time.Time
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Extractor  ports.Extractor
	Summarizer ports.Summarizer
	Humorizer  ports.Humorizer
	Renderer   ports.Renderer
	Logger     *slog.Logger
	Options    Options
}

// Result reports what a run produced. Path is empty when nothing was written.
type Result struct {
	Discovered int
	Completed  int
	Humorous   int
	Dropped    int
	Path       string
}

// Pipeline implements the collect, extract, summarize, humorize and render
// workflow for a single newsletter.
type Pipeline struct {
	source     ports.ArticleSource
	extractor  ports.Extractor
	summarizer ports.Summarizer
	humorizer  ports.Humorizer
	renderer   ports.Renderer
	logger     *slog.Logger
	opts       Options
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	opts := deps.Options
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.HumorPolicy == "" {
		opts.HumorPolicy = HumorFallback
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		source:     deps.Source,
		extractor:  deps.Extractor,
		summarizer: deps.Summarizer,
		humorizer:  deps.Humorizer,
		renderer:   deps.Renderer,
		logger:     deps.Logger,
		opts:       opts,
	}
}

// stageError records the stage at which an article was dropped.
type stageError struct {
	stage domain.Stage
	err   error
}

func (e *stageError) Error() string { return fmt.Sprintf("%s: %v", e.stage, e.err) }

func (e *stageError) Unwrap() error { return e.err }

// Run produces one newsletter. Articles that fail at any stage are dropped
// and logged; the rest keep their discovery order. A cancelled ctx aborts
// the run before anything is written.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if p.source == nil || p.extractor == nil || p.summarizer == nil || p.renderer == nil {
		return Result{}, errors.New("pipeline is not fully wired")
	}

	startedAt := p.opts.Now()

	refs, err := p.source.Collect(ctx)
	if err != nil {
		return Result{}, &stageError{stage: domain.StageCollect, err: err}
	}
	result := Result{Discovered: len(refs)}
	p.info("articles discovered", "count", len(refs))

	slots := make([]*domain.Summary, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			summary, err := p.process(gctx, ref)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.logDropped(ref, err)
				return nil
			}
			slots[i] = &summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("process articles: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("process articles: %w", err)
	}

	articles := make([]domain.Summary, 0, len(slots))
	for _, s := range slots {
		if s == nil {
			continue
		}
		articles = append(articles, *s)
		if s.Humorous() {
			result.Humorous++
		}
	}
	result.Completed = len(articles)
	result.Dropped = result.Discovered - result.Completed

	if len(articles) == 0 && !p.opts.WriteEmpty {
		p.info("no articles survived, nothing written", "discovered", result.Discovered, "dropped", result.Dropped)
		return result, nil
	}

	path, err := p.renderer.Render(ctx, domain.Newsletter{
		Title:       p.opts.Title,
		GeneratedAt: startedAt,
		Articles:    articles,
	})
	if err != nil {
		return result, &stageError{stage: domain.StageRender, err: err}
	}
	result.Path = path

	p.info("newsletter written",
		"discovered", result.Discovered,
		"completed", result.Completed,
		"humorous", result.Humorous,
		"dropped", result.Dropped,
		"path", result.Path,
	)
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, ref domain.ArticleRef) (domain.Summary, error) {
	content, err := p.extractor.Extract(ctx, ref)
	if err != nil {
		return domain.Summary{}, &stageError{stage: domain.StageExtract, err: err}
	}

	text, err := p.call(ctx, p.opts.SummarizerGate, domain.StageSummarize, ref, func(ctx context.Context) (string, error) {
		return p.summarizer.Summarize(ctx, content.Body)
	})
	if err != nil {
		return domain.Summary{}, &stageError{stage: domain.StageSummarize, err: err}
	}

	summary := domain.Summary{Ref: content.Ref, Text: text}
	if p.humorizer == nil {
		return summary, nil
	}

	humor, err := p.call(ctx, p.opts.HumorGate, domain.StageHumorize, ref, func(ctx context.Context) (string, error) {
		return p.humorizer.Humorize(ctx, summary.Ref.Title, text)
	})
	if err != nil {
		if ctx.Err() != nil || p.opts.HumorPolicy == HumorDrop {
			return domain.Summary{}, &stageError{stage: domain.StageHumorize, err: err}
		}
		p.warn("humor rewrite failed, keeping plain summary",
			"url", ref.URL,
			"stage", domain.StageHumorize,
			"kind", failureKind(err),
			"error", err,
		)
		return summary, nil
	}

	summary.Humor = humor
	return summary, nil
}

// call runs fn through the API gate with a per-attempt timeout and retries
// transient failures.
func (p *Pipeline) call(ctx context.Context, gate *throttle.Gate, stage domain.Stage, ref domain.ArticleRef, fn func(context.Context) (string, error)) (string, error) {
	policy := p.opts.Retry
	policy.OnRetry = func(err error, wait time.Duration) {
		p.debug("retrying model call", "url", ref.URL, "stage", stage, "wait", wait, "error", err)
	}

	var out string
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		return gate.Do(ctx, func(ctx context.Context) error {
			if p.opts.CallTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
				defer cancel()
			}
			res, err := fn(ctx)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	})
	return out, err
}

// FailedStage reports the pipeline step that produced err, if any.
func FailedStage(err error) (domain.Stage, bool) {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage, true
	}
	return "", false
}

func (p *Pipeline) logDropped(ref domain.ArticleRef, err error) {
	stage, _ := FailedStage(err)
	p.warn("article dropped",
		"url", ref.URL,
		"stage", stage,
		"kind", failureKind(err),
		"error", err,
	)
}

func failureKind(err error) string {
	var me *domain.ModelError
	if errors.As(err, &me) {
		return string(me.Kind)
	}
	var ee *domain.ExtractionError
	if errors.As(err, &ee) {
		return string(ee.Reason)
	}
	return "unknown"
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
