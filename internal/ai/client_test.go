package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	})
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestGenerateObjectSendsStrictSchema(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeCompletion(w, "```json\n{\"tone\":\"warm\"}\n```")
	})

	out, err := client.GenerateObject(context.Background(), ObjectRequest{
		Model:      "gpt-4o-mini",
		System:     "be precise",
		Prompt:     "analyze",
		SchemaName: "brand_analysis",
		Schema:     map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tone":"warm"}`, string(out))

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing")
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "brand_analysis", schema["name"])
	assert.Equal(t, true, schema["strict"])

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestGenerateTextUsesDefaultModel(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeCompletion(w, "plain answer")
	})

	out, err := client.GenerateText(context.Background(), TextRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", out)
	assert.Equal(t, OpenAIModels().Select(TierFast), captured["model"])
	_, hasFormat := captured["response_format"]
	assert.False(t, hasFormat)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"payment required status", http.StatusPaymentRequired, `{"error":"pay"}`, ErrPaymentRequired},
		{"credit card message", http.StatusForbidden, `{"error":{"message":"Please add a credit card to continue"}}`, ErrPaymentRequired},
		{"verification required", http.StatusForbidden, `{"error":{"type":"verification_required"}}`, ErrPaymentRequired},
		{"empty choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, ErrEmptyResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.GenerateText(context.Background(), TextRequest{Prompt: "x"})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClientServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	_, err := client.GenerateObject(context.Background(), ObjectRequest{Prompt: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPaymentRequired))
	assert.Contains(t, err.Error(), "502")
}

func TestGenerateObjectRejectsInvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "not json at all")
	})
	_, err := client.GenerateObject(context.Background(), ObjectRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}```", `{"a":1}`},
		{"surrounding prose", "Here you go: {\"a\":{\"b\":2}} hope it helps", `{"a":{"b":2}}`},
		{"plain", `{"a":1}`, `{"a":1}`},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanJSON(tc.input))
		})
	}
}

func TestModelsSelect(t *testing.T) {
	models := OpenAIModels()
	assert.Equal(t, "gpt-4o-mini", models.Select(TierFast))
	assert.Equal(t, "gpt-4o-mini", models.Select(" FAST "))
	assert.Equal(t, "gpt-4-turbo", models.Select("unknown"))

	pinned := GeminiModels().WithOverride("gemini-custom")
	assert.Equal(t, "gemini-custom", pinned.Select(TierAdvanced))
	assert.Equal(t, "gemini-2.5-pro", GeminiModels().WithOverride("").Select(TierAdvanced))
}
