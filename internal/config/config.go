package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"AINewsletter/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWSLETTER_CONFIG"

	openAIKeyEnv          = "OPENAI_API_KEY"
	anthropicKeyEnv       = "ANTHROPIC_API_KEY"
	huggingFaceTokenEnv   = "HF_API_TOKEN"
	summarizerProviderEnv = "SUMMARIZER_PROVIDER"
	summarizationModelEnv = "SUMMARIZATION_MODEL"
	humorProviderEnv      = "HUMOR_PROVIDER"
	humorModelEnv         = "HUMOR_MODEL"
	humorTemperatureEnv   = "HUMOR_TEMPERATURE"
	maxArticlesEnv        = "MAX_ARTICLES"
	maxPerSourceEnv       = "MAX_ARTICLES_PER_SOURCE"
	daysToLookBackEnv     = "DAYS_TO_LOOK_BACK"
	outputFormatEnv       = "OUTPUT_FORMAT"
	outputDirectoryEnv    = "OUTPUT_DIRECTORY"
	outputPathEnv         = "OUTPUT_PATH"
	logLevelEnv           = "LOG_LEVEL"
)

// Provider names accepted by the summarizer and humor sections.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Per-provider defaults applied when the endpoint or model is left unset.
const (
	defaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models"
	defaultHuggingFaceModel    = "google/pegasus-cnn_dailymail"
	defaultOpenAIModel         = "gpt-4o-mini"
	defaultAnthropicModel      = "claude-3-5-haiku-latest"
)

// Humor failure policies.
const (
	OnFailureFallback = "fallback"
	OnFailureDrop     = "drop"
)

// Config holds every setting of a run. It is built once by Load and passed
// by value into constructors.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Collector  CollectorConfig  `yaml:"collector"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Humor      HumorConfig      `yaml:"humor"`
	Retry      RetryConfig      `yaml:"retry"`
	Limits     LimitsConfig     `yaml:"limits"`
	Output     OutputConfig     `yaml:"output"`
	Sources    []SourceConfig   `yaml:"sources"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CollectorConfig bounds article discovery.
type CollectorConfig struct {
	MaxArticles  int           `yaml:"maxArticles"`
	MaxPerSource int           `yaml:"maxPerSource"`
	MaxAge       time.Duration `yaml:"maxAge"`
	UserAgent    string        `yaml:"userAgent"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ExtractorConfig describes article page fetching.
type ExtractorConfig struct {
	MinBodyChars int           `yaml:"minBodyChars"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"userAgent"`
}

// SummarizerConfig selects and tunes the summarization model.
type SummarizerConfig struct {
	Provider      string `yaml:"provider"`
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"apiKey"`
	MaxInputChars int    `yaml:"maxInputChars"`
	MinInputChars int    `yaml:"minInputChars"`
	MaxSentences  int    `yaml:"maxSentences"`
	MaxChars      int    `yaml:"maxChars"`
	MinLength     int    `yaml:"minLength"`
	MaxLength     int    `yaml:"maxLength"`
}

// HumorConfig selects and tunes the humor rewrite model.
type HumorConfig struct {
	Provider     string  `yaml:"provider"`
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	SystemPrompt string  `yaml:"systemPrompt"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"maxTokens"`
	OnFailure    string  `yaml:"onFailure"`
}

// RetryConfig is the bounded exponential backoff applied to model calls.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// LimitsConfig caps concurrency towards each external API.
type LimitsConfig struct {
	Workers               int           `yaml:"workers"`
	CallTimeout           time.Duration `yaml:"callTimeout"`
	SummarizerConcurrency int           `yaml:"summarizerConcurrency"`
	SummarizerRPS         float64       `yaml:"summarizerRps"`
	HumorConcurrency      int           `yaml:"humorConcurrency"`
	HumorRPS              float64       `yaml:"humorRps"`
}

// OutputConfig describes where and how the newsletter is written.
type OutputConfig struct {
	Directory  string         `yaml:"directory"`
	Path       string         `yaml:"path"`
	Format     string         `yaml:"format"`
	Title      string         `yaml:"title"`
	WriteEmpty bool           `yaml:"writeEmpty"`
	Timezone   string         `yaml:"timezone"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the output timezone string to a time.Location.
func (o OutputConfig) Location() *time.Location {
	if o.location != nil {
		return o.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Extension is the file extension matching the output format.
func Extension(format string) string {
	if format == FormatHTML {
		return ".html"
	}
	return ".md"
}

// SourceConfig describes a single publication with its scanner strategy.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Scanner string `yaml:"scanner"`
}

// Load reads .env files, the YAML configuration (if any) and environment
// overrides on top of the defaults. An explicitly named file that cannot be
// read or parsed is an error.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &domain.ConfigError{Problems: []string{fmt.Sprintf("cannot read %s: %v", path, err)}}
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, &domain.ConfigError{Problems: []string{fmt.Sprintf("cannot parse %s: %v", path, err)}}
		}
	}

	cfg.applyEnvOverrides(os.Getenv)
	cfg.applyProviderDefaults()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg, nil
}

func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if v := getenv(summarizerProviderEnv); v != "" {
		c.Summarizer.Provider = strings.ToLower(v)
	}
	if v := getenv(summarizationModelEnv); v != "" {
		c.Summarizer.Model = v
	}
	if v := getenv(humorProviderEnv); v != "" {
		c.Humor.Provider = strings.ToLower(v)
	}
	if v := getenv(humorModelEnv); v != "" {
		c.Humor.Model = v
	}

	if v := keyFor(c.Summarizer.Provider, getenv); v != "" {
		c.Summarizer.APIKey = v
	}
	if v := keyFor(c.Humor.Provider, getenv); v != "" {
		c.Humor.APIKey = v
	}

	if v, err := strconv.ParseFloat(getenv(humorTemperatureEnv), 64); err == nil {
		c.Humor.Temperature = v
	}
	if v, err := strconv.Atoi(getenv(maxArticlesEnv)); err == nil {
		c.Collector.MaxArticles = v
	}
	if v, err := strconv.Atoi(getenv(maxPerSourceEnv)); err == nil {
		c.Collector.MaxPerSource = v
	}
	if v, err := strconv.Atoi(getenv(daysToLookBackEnv)); err == nil {
		c.Collector.MaxAge = time.Duration(v) * 24 * time.Hour
	}
	if v := getenv(outputFormatEnv); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := getenv(outputDirectoryEnv); v != "" {
		c.Output.Directory = v
	}
	if v := getenv(outputPathEnv); v != "" {
		c.Output.Path = v
	}
	if v := getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// applyProviderDefaults fills the endpoint and model of each section from
// its resolved provider. Values set by the file or environment are kept.
func (c *Config) applyProviderDefaults() {
	switch c.Summarizer.Provider {
	case ProviderHuggingFace:
		if c.Summarizer.Endpoint == "" {
			c.Summarizer.Endpoint = defaultHuggingFaceEndpoint
		}
		if c.Summarizer.Model == "" {
			c.Summarizer.Model = defaultHuggingFaceModel
		}
	case ProviderOpenAI:
		if c.Summarizer.Model == "" {
			c.Summarizer.Model = defaultOpenAIModel
		}
	}

	switch c.Humor.Provider {
	case ProviderOpenAI:
		if c.Humor.Model == "" {
			c.Humor.Model = defaultOpenAIModel
		}
	case ProviderAnthropic:
		if c.Humor.Model == "" {
			c.Humor.Model = defaultAnthropicModel
		}
	}
}

// foreignDefault reports the provider whose default endpoint or model leaked
// into a section configured for a different provider.
func foreignDefault(provider, endpoint, model string) string {
	if !slices.Contains([]string{ProviderHuggingFace, ProviderOpenAI, ProviderAnthropic}, provider) {
		return ""
	}
	switch {
	case provider != ProviderHuggingFace && (endpoint == defaultHuggingFaceEndpoint || model == defaultHuggingFaceModel):
		return ProviderHuggingFace
	case provider != ProviderOpenAI && model == defaultOpenAIModel:
		return ProviderOpenAI
	case provider != ProviderAnthropic && model == defaultAnthropicModel:
		return ProviderAnthropic
	}
	return ""
}

func keyFor(provider string, getenv func(string) string) string {
	switch provider {
	case ProviderOpenAI:
		return getenv(openAIKeyEnv)
	case ProviderAnthropic:
		return getenv(anthropicKeyEnv)
	case ProviderHuggingFace:
		return getenv(huggingFaceTokenEnv)
	default:
		return ""
	}
}

// Validate checks the configuration and binds derived values. Every problem
// is reported at once in a *domain.ConfigError.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch c.Summarizer.Provider {
	case ProviderHuggingFace:
		if c.Summarizer.APIKey == "" {
			add("summarizer: %s is required for provider %s", huggingFaceTokenEnv, ProviderHuggingFace)
		}
	case ProviderOpenAI:
		if c.Summarizer.APIKey == "" {
			add("summarizer: %s is required for provider %s", openAIKeyEnv, ProviderOpenAI)
		}
	default:
		add("summarizer: unknown provider %q", c.Summarizer.Provider)
	}

	switch c.Humor.Provider {
	case ProviderOpenAI:
		if c.Humor.APIKey == "" {
			add("humor: %s is required for provider %s", openAIKeyEnv, ProviderOpenAI)
		}
	case ProviderAnthropic:
		if c.Humor.APIKey == "" {
			add("humor: %s is required for provider %s", anthropicKeyEnv, ProviderAnthropic)
		}
	default:
		add("humor: unknown provider %q", c.Humor.Provider)
	}

	if c.Summarizer.Model == "" {
		add("summarizer: model is required")
	}
	if c.Humor.Model == "" {
		add("humor: model is required")
	}
	if other := foreignDefault(c.Summarizer.Provider, c.Summarizer.Endpoint, c.Summarizer.Model); other != "" {
		add("summarizer: endpoint %q or model %q belongs to provider %s, not %s",
			c.Summarizer.Endpoint, c.Summarizer.Model, other, c.Summarizer.Provider)
	}
	if other := foreignDefault(c.Humor.Provider, c.Humor.Endpoint, c.Humor.Model); other != "" {
		add("humor: endpoint %q or model %q belongs to provider %s, not %s",
			c.Humor.Endpoint, c.Humor.Model, other, c.Humor.Provider)
	}
	if c.Humor.Temperature < 0 || c.Humor.Temperature > 1 {
		add("humor: temperature %.2f outside [0, 1]", c.Humor.Temperature)
	}
	if c.Humor.OnFailure != OnFailureFallback && c.Humor.OnFailure != OnFailureDrop {
		add("humor: onFailure must be %q or %q, got %q", OnFailureFallback, OnFailureDrop, c.Humor.OnFailure)
	}

	positive := map[string]int{
		"collector.maxArticles":        c.Collector.MaxArticles,
		"collector.maxPerSource":       c.Collector.MaxPerSource,
		"extractor.minBodyChars":       c.Extractor.MinBodyChars,
		"summarizer.maxInputChars":     c.Summarizer.MaxInputChars,
		"summarizer.maxSentences":      c.Summarizer.MaxSentences,
		"summarizer.maxChars":          c.Summarizer.MaxChars,
		"summarizer.maxLength":         c.Summarizer.MaxLength,
		"humor.maxTokens":              c.Humor.MaxTokens,
		"retry.maxAttempts":            c.Retry.MaxAttempts,
		"limits.workers":               c.Limits.Workers,
		"limits.summarizerConcurrency": c.Limits.SummarizerConcurrency,
		"limits.humorConcurrency":      c.Limits.HumorConcurrency,
	}
	for _, key := range slices.Sorted(maps.Keys(positive)) {
		if positive[key] <= 0 {
			add("%s must be positive, got %d", key, positive[key])
		}
	}
	if c.Summarizer.MinLength > c.Summarizer.MaxLength {
		add("summarizer: minLength %d exceeds maxLength %d", c.Summarizer.MinLength, c.Summarizer.MaxLength)
	}
	if c.Limits.CallTimeout <= 0 {
		add("limits.callTimeout must be positive")
	}
	if c.Extractor.Timeout <= 0 {
		add("extractor.timeout must be positive")
	}

	if c.Output.Format != FormatMarkdown && c.Output.Format != FormatHTML {
		add("output: unknown format %q", c.Output.Format)
	}
	if c.Output.Path == "" && c.Output.Directory == "" {
		add("output: either path or directory is required")
	}

	if len(c.Sources) == 0 {
		add("sources: at least one source is required")
	}
	for i, src := range c.Sources {
		if src.Name == "" || src.URL == "" {
			add("sources[%d]: name and url are required", i)
		}
	}

	if err := c.bindTimezone(); err != nil {
		add("output: %v", err)
	}

	if len(problems) > 0 {
		return &domain.ConfigError{Problems: problems}
	}
	return nil
}

func (c *Config) bindTimezone() error {
	tz := c.Output.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown timezone %s", tz)
	}
	c.Output.location = loc
	return nil
}

// Domain converts the configured sources to domain values.
func (c Config) Domain() []domain.Source {
	sources := make([]domain.Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		scanner := src.Scanner
		if scanner == "" {
			scanner = "html"
		}
		sources = append(sources, domain.Source{Name: src.Name, URL: src.URL, Scanner: scanner})
	}
	return sources
}

// Default returns the documented defaults without reading files or the
// environment.
func Default() Config {
	cfg := defaultConfig()
	cfg.applyProviderDefaults()
	return cfg
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Collector: CollectorConfig{
			MaxArticles:  10,
			MaxPerSource: 5,
			MaxAge:       72 * time.Hour,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:      30 * time.Second,
		},
		Extractor: ExtractorConfig{
			MinBodyChars: 200,
			Timeout:      30 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Summarizer: SummarizerConfig{
			Provider:      ProviderHuggingFace,
			MaxInputChars: 4000,
			MinInputChars: 200,
			MaxSentences:  5,
			MaxChars:      1200,
			MinLength:     50,
			MaxLength:     150,
		},
		Humor: HumorConfig{
			Provider:     ProviderOpenAI,
			SystemPrompt: "You are a witty tech journalist specializing in AI news with a great sense of humor.",
			Temperature:  0.7,
			MaxTokens:    500,
			OnFailure:    OnFailureFallback,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     8 * time.Second,
		},
		Limits: LimitsConfig{
			Workers:               4,
			CallTimeout:           30 * time.Second,
			SummarizerConcurrency: 2,
			SummarizerRPS:         2,
			HumorConcurrency:      2,
			HumorRPS:              2,
		},
		Output: OutputConfig{
			Directory: "./output",
			Format:    FormatMarkdown,
			Title:     "AI News with a Twist",
			Timezone:  defaultTimezone,
			location:  tz,
		},
		Sources: []SourceConfig{
			{Name: "Analytics Insight", URL: "https://www.analyticsinsight.net/category/artificial-intelligence/", Scanner: "html"},
			{Name: "AI Magazine", URL: "https://aimagazine.com/latest-news", Scanner: "html"},
			{Name: "DevX", URL: "https://www.devx.com/category/ai/", Scanner: "html"},
			{Name: "MIT News", URL: "https://news.mit.edu/topic/artificial-intelligence2", Scanner: "html"},
			{Name: "Science Daily", URL: "https://www.sciencedaily.com/news/computers_math/artificial_intelligence/", Scanner: "html"},
			{Name: "Google AI Blog", URL: "https://ai.google/latest-news/", Scanner: "html"},
			{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/", Scanner: "html"},
		},
	}
}

// Overrides carries command-line values; zero values leave the config as is.
type Overrides struct {
	OutputPath     string
	Format         string
	LogLevel       string
	HumorOnFailure string
	MaxArticles    int
	Workers        int
}

// Apply layers command-line overrides on top of file and environment values.
func (c *Config) Apply(o Overrides) {
	if o.OutputPath != "" {
		c.Output.Path = o.OutputPath
	}
	if o.Format != "" {
		c.Output.Format = strings.ToLower(o.Format)
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.HumorOnFailure != "" {
		c.Humor.OnFailure = strings.ToLower(o.HumorOnFailure)
	}
	if o.MaxArticles > 0 {
		c.Collector.MaxArticles = o.MaxArticles
	}
	if o.Workers > 0 {
		c.Limits.Workers = o.Workers
	}
}
