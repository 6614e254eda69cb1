// Package textutil holds the deterministic text bounds applied around
// summarization.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncate keeps at most limit runes of text, cutting at the last word
// boundary when one exists. The same input always yields the same output.
func Truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := runes[:limit]
	end := len(cut)
	if !unicode.IsSpace(runes[limit]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				end = i
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut[:end]), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':'
	})
}

// Sentences splits text after '.', '!' or '?' followed by whitespace.
func Sentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var (
		out   []string
		runes = []rune(text)
		start = 0
	)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// Clamp bounds a model summary to maxSentences sentences and maxChars runes.
// Zero disables the corresponding bound.
func Clamp(summary string, maxSentences, maxChars int) string {
	sentences := Sentences(summary)
	if maxSentences > 0 && len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	out := strings.Join(sentences, " ")
	if maxChars > 0 {
		out = Truncate(out, maxChars)
	}
	return out
}
