package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"AINewsletter/internal/config"
	"AINewsletter/internal/infrastructure/extract"
	"AINewsletter/internal/infrastructure/llm"
	"AINewsletter/internal/infrastructure/ml"
	"AINewsletter/internal/infrastructure/parser"
	"AINewsletter/internal/infrastructure/render"
	"AINewsletter/internal/logging"
	"AINewsletter/internal/ports"
	"AINewsletter/internal/retry"
	"AINewsletter/internal/scanner"
	"AINewsletter/internal/throttle"
	"AINewsletter/internal/usecase"
)

// Application wires configs to use cases.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New validates cfg and builds a runnable application. No network call is
// made before validation succeeds.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	scanClient := &http.Client{Timeout: cfg.Collector.Timeout}
	registry := scanner.NewRegistry(
		parser.NewListingScanner(scanClient, cfg.Collector.UserAgent, baseLogger.With("component", "scanner.html")),
		parser.NewFeedScanner(scanClient, cfg.Collector.UserAgent, baseLogger.With("component", "scanner.rss")),
	)

	baseLogger.Debug("scanners registered", "names", registry.Names())

	source := parser.NewStrategySource(registry, cfg.Domain(), parser.SourceOptions{
		MaxArticles:  cfg.Collector.MaxArticles,
		MaxPerSource: cfg.Collector.MaxPerSource,
		MaxAge:       cfg.Collector.MaxAge,
	}, baseLogger.With("component", "source"))

	extractor := extract.NewReadabilityExtractor(nil, extract.Options{
		MinBodyChars: cfg.Extractor.MinBodyChars,
		Timeout:      cfg.Extractor.Timeout,
		UserAgent:    cfg.Extractor.UserAgent,
	}, baseLogger.With("component", "extractor"))

	summarizer, err := newSummarizer(cfg.Summarizer, baseLogger.With("component", "summarizer"))
	if err != nil {
		return nil, err
	}
	humorizer, err := newHumorizer(cfg.Humor, baseLogger.With("component", "humorizer"))
	if err != nil {
		return nil, err
	}

	renderer := render.NewFileRenderer(render.Options{
		Format:    cfg.Output.Format,
		Directory: cfg.Output.Directory,
		Path:      cfg.Output.Path,
		Location:  cfg.Output.Location(),
	}, baseLogger.With("component", "renderer"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Extractor:  extractor,
		Summarizer: summarizer,
		Humorizer:  humorizer,
		Renderer:   renderer,
		Logger:     baseLogger.With("component", "pipeline"),
		Options: usecase.Options{
			Title:       cfg.Output.Title,
			Workers:     cfg.Limits.Workers,
			CallTimeout: cfg.Limits.CallTimeout,
			Retry: retry.Policy{
				MaxAttempts:  cfg.Retry.MaxAttempts,
				InitialDelay: cfg.Retry.InitialDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
			},
			HumorPolicy:    usecase.HumorPolicy(cfg.Humor.OnFailure),
			WriteEmpty:     cfg.Output.WriteEmpty,
			SummarizerGate: throttle.NewGate(cfg.Limits.SummarizerConcurrency, cfg.Limits.SummarizerRPS),
			HumorGate:      throttle.NewGate(cfg.Limits.HumorConcurrency, cfg.Limits.HumorRPS),
		},
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

func newSummarizer(cfg config.SummarizerConfig, log *slog.Logger) (ports.Summarizer, error) {
	switch cfg.Provider {
	case config.ProviderHuggingFace:
		return ml.NewClient(cfg, nil, log), nil
	case config.ProviderOpenAI:
		return llm.NewOpenAISummarizer(cfg, nil, log), nil
	default:
		return nil, fmt.Errorf("unsupported summarizer provider %q", cfg.Provider)
	}
}

func newHumorizer(cfg config.HumorConfig, log *slog.Logger) (ports.Humorizer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIHumorizer(cfg, nil, log), nil
	case config.ProviderAnthropic:
		return llm.NewAnthropicHumorizer(cfg, nil, log), nil
	default:
		return nil, fmt.Errorf("unsupported humor provider %q", cfg.Provider)
	}
}

// Run performs a single newsletter run.
func (a *Application) Run(ctx context.Context) (usecase.Result, error) {
	if a.pipeline == nil {
		return usecase.Result{}, nil
	}
	return a.pipeline.Run(ctx)
}
