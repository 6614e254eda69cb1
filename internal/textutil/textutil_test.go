package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short", in: "hello world", limit: 50, want: "hello world"},
		{name: "word boundary", in: "alpha beta gamma delta", limit: 13, want: "alpha beta"},
		{name: "exact boundary", in: "alpha beta gamma", limit: 10, want: "alpha beta"},
		{name: "no space", in: "supercalifragilistic", limit: 5, want: "super"},
		{name: "trailing comma", in: "one, two, three", limit: 5, want: "one"},
		{name: "multibyte", in: "ünïcödé wörds here", limit: 9, want: "ünïcödé"},
		{name: "zero", in: "anything", limit: 0, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.in, tc.limit)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), max(tc.limit, 0))
		})
	}
}

func TestTruncateIsDeterministic(t *testing.T) {
	t.Parallel()

	in := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	first := Truncate(in, 1024)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Truncate(in, 1024))
	}
	assert.True(t, strings.HasPrefix(in, first))
}

func TestSentences(t *testing.T) {
	t.Parallel()

	got := Sentences("First one.  Second one!\nThird? Version 2.5 ships soon. trailing")
	assert.Equal(t, []string{"First one.", "Second one!", "Third?", "Version 2.5 ships soon.", "trailing"}, got)
	assert.Nil(t, Sentences("   "))
}

func TestClamp(t *testing.T) {
	t.Parallel()

	summary := "One. Two. Three. Four. Five. Six. Seven."
	assert.Equal(t, "One. Two. Three.", Clamp(summary, 3, 0))
	assert.Equal(t, "One. Two.", Clamp(summary, 0, 12))
	assert.Equal(t, summary, Clamp(summary, 10, 500))
}
