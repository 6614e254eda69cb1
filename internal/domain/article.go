package domain

import "time"

// Source identifies a configured news publication and how to scan it.
type Source struct {
	Name    string
	URL     string
	Scanner string
}

// ArticleRef is a discovered article candidate produced by the collector.
type ArticleRef struct {
	URL         string
	Title       string
	Source      string
	PublishedAt *time.Time
}

// ArticleContent is an ArticleRef with its extracted body text.
type ArticleContent struct {
	Ref  ArticleRef
	Body string
}

// Summary is built incrementally by the summarizer and humorizer stages.
type Summary struct {
	Ref   ArticleRef
	Text  string
	Humor string
}

// FinalText is the body rendered for the article: the humor rewrite when
// present, the plain summary otherwise.
func (s Summary) FinalText() string {
	if s.Humor != "" {
		return s.Humor
	}
	return s.Text
}

// Humorous reports whether the rendered text is a humor rewrite.
func (s Summary) Humorous() bool {
	return s.Humor != ""
}

// Newsletter is the input for a single render.
type Newsletter struct {
	Title       string
	GeneratedAt time.Time
	Articles    []Summary
}

// Stage names a pipeline step for logging and error context.
type Stage string

const (
	StageCollect   Stage = "collect"
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageHumorize  Stage = "humorize"
	StageRender    Stage = "render"
)
