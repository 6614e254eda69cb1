package llm

import (
	"fmt"
	"strings"
)

const defaultHumorSystemPrompt = "You are a witty tech journalist specializing in AI news with a great sense of humor."

const humorTemplate = `Rewrite this AI news summary in a humorous, entertaining way:

Title: %s
Summary: %s

Make it witty, include some puns related to AI, and maintain all the key facts.
Format as a short, funny news segment that would make people laugh while still being informative.`

const summarySystemPrompt = "You are a precise technology news editor. You summarize articles faithfully, without opinions or invented facts."

const summaryTemplate = `Summarize the following AI news article in at most %d sentences.
Keep names, numbers and dates exactly as written. Answer with the summary only.

Article:
%s`

// HumorPrompt renders the fixed humor instruction for one article.
func HumorPrompt(title, summary string) string {
	return fmt.Sprintf(humorTemplate, strings.TrimSpace(title), strings.TrimSpace(summary))
}

// SummaryPrompt renders the summarization instruction for one article body.
func SummaryPrompt(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return fmt.Sprintf(summaryTemplate, maxSentences, text)
}

func systemPrompt(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return defaultHumorSystemPrompt
	}
	return configured
}
