package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsletter/internal/config"
	"AINewsletter/internal/domain"
)

const completionJSON = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`

func completionBody(content string) string {
	b, _ := json.Marshal(content)
	return fmt.Sprintf(completionJSON, b)
}

type capturedRequest struct {
	Path string
	Auth string
	Body map[string]any
}

func openAIServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Path = r.URL.Path
			captured.Auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func humorConfig(endpoint string) config.HumorConfig {
	return config.HumorConfig{
		Provider:     config.ProviderOpenAI,
		Endpoint:     endpoint,
		Model:        "gpt-4o-mini",
		APIKey:       "sk-test",
		SystemPrompt: "You are a witty tech journalist.",
		Temperature:  0.7,
		MaxTokens:    500,
		OnFailure:    config.OnFailureFallback,
	}
}

func messageContent(t *testing.T, body map[string]any, i int) string {
	t.Helper()
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Greater(t, len(messages), i)
	msg, ok := messages[i].(map[string]any)
	require.True(t, ok)
	content, ok := msg["content"].(string)
	require.True(t, ok)
	return content
}

func TestOpenAIHumorize(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	srv := openAIServer(t, http.StatusOK, completionBody("  Robots walk into a bar.  "), &got)

	client := NewOpenAIHumorizer(humorConfig(srv.URL+"/v1/"), nil, nil)
	text, err := client.Humorize(context.Background(), "Robots learn to walk", "A lab taught robots to walk.")
	require.NoError(t, err)

	assert.Equal(t, "Robots walk into a bar.", text)
	assert.Equal(t, "/v1/chat/completions", got.Path)
	assert.Equal(t, "Bearer sk-test", got.Auth)
	assert.Equal(t, "gpt-4o-mini", got.Body["model"])
	assert.InDelta(t, 0.7, got.Body["temperature"], 1e-9)
	assert.InDelta(t, 500, got.Body["max_completion_tokens"], 1e-9)
	assert.Equal(t, "You are a witty tech journalist.", messageContent(t, got.Body, 0))

	prompt := messageContent(t, got.Body, 1)
	assert.Contains(t, prompt, "Title: Robots learn to walk")
	assert.Contains(t, prompt, "Summary: A lab taught robots to walk.")
	assert.Contains(t, prompt, "puns related to AI")
}

func TestOpenAIClassifiesErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		kind   domain.FailureKind
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, kind: domain.Transient},
		{name: "server error", status: http.StatusBadGateway, kind: domain.Transient},
		{name: "bad request", status: http.StatusBadRequest, kind: domain.Permanent},
		{name: "unauthorized", status: http.StatusUnauthorized, kind: domain.Permanent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := openAIServer(t, tc.status, `{"error":{"message":"nope","type":"test"}}`, nil)

			_, err := NewOpenAIHumorizer(humorConfig(srv.URL+"/v1/"), nil, nil).Humorize(context.Background(), "t", "s")
			var me *domain.ModelError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tc.kind, me.Kind)
			assert.Equal(t, tc.status, me.StatusCode)
			assert.Equal(t, domain.StageHumorize, me.Stage)
		})
	}
}

func TestOpenAIEmptyChoiceIsPermanent(t *testing.T) {
	t.Parallel()

	srv := openAIServer(t, http.StatusOK, completionBody("   "), nil)
	_, err := NewOpenAIHumorizer(humorConfig(srv.URL+"/v1/"), nil, nil).Humorize(context.Background(), "t", "s")

	var me *domain.ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, domain.Permanent, me.Kind)
}

func TestOpenAISummarize(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	srv := openAIServer(t, http.StatusOK, completionBody("One. Two. Three. Four."), &got)

	cfg := config.SummarizerConfig{
		Provider:      config.ProviderOpenAI,
		Endpoint:      srv.URL + "/v1/",
		Model:         "gpt-4o-mini",
		APIKey:        "sk-test",
		MaxInputChars: 100,
		MinInputChars: 10,
		MaxSentences:  2,
		MaxChars:      500,
		MaxLength:     150,
	}
	article := strings.Repeat("Model news travels fast. ", 20)

	summary, err := NewOpenAISummarizer(cfg, nil, nil).Summarize(context.Background(), article)
	require.NoError(t, err)
	assert.Equal(t, "One. Two.", summary)

	prompt := messageContent(t, got.Body, 1)
	assert.Contains(t, prompt, "at most 2 sentences")
	assert.NotContains(t, prompt, article)
	assert.InDelta(t, 0, got.Body["temperature"], 1e-9)

	_, err = NewOpenAISummarizer(cfg, nil, nil).Summarize(context.Background(), "short")
	var me *domain.ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, domain.Permanent, me.Kind)
}
