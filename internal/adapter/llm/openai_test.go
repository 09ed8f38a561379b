package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/config"
)

func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "XAI_API_KEY", "GROK_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestResolveModel(t *testing.T) {
	clearKeys(t)
	cfg := config.DefaultConfig().LLM

	assert.Equal(t, DefaultModel, ResolveModel(cfg))

	t.Setenv("XAI_API_KEY", "x")
	assert.Equal(t, DefaultGrokModel, ResolveModel(cfg))

	t.Setenv("GEMINI_API_KEY", "g")
	assert.Equal(t, DefaultGeminiModel, ResolveModel(cfg))

	cfg.Model = "  ollama:llama3 "
	assert.Equal(t, "ollama:llama3", ResolveModel(cfg))
}

func TestCanUse(t *testing.T) {
	clearKeys(t)
	cfg := config.DefaultConfig().LLM

	tests := []struct {
		model string
		want  bool
	}{
		{"ollama:phi3", true},
		{"OLLAMA:phi3", true},
		{"gemini-2.0-flash-exp", false},
		{"grok-2-latest", false},
		{"xai-beta", false},
		{"openai:gpt-4o-mini", false},
		{"gpt-4o", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanUse(tt.model, cfg), tt.model)
	}

	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("GROK_API_KEY", "k")
	t.Setenv("OPENAI_API_KEY", "o")
	assert.True(t, CanUse("gemini-2.0-flash-exp", cfg))
	assert.True(t, CanUse("grok-2-latest", cfg))
	assert.True(t, CanUse("openai:gpt-4o-mini", cfg))
	assert.False(t, CanUse("claude", cfg))
}

func TestUsable(t *testing.T) {
	clearKeys(t)
	cfg := config.DefaultConfig().LLM

	assert.Nil(t, Usable("gemini-2.0-flash-exp", cfg))
	assert.NotNil(t, Usable("ollama:phi3", cfg))
}

func TestNew_Errors(t *testing.T) {
	cfg := config.DefaultConfig().LLM

	_, err := New("mystery-model", cfg)
	assert.Error(t, err)
	_, err = New("ollama:", cfg)
	assert.Error(t, err)
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_OllamaGenerate(t *testing.T) {
	var got chatRequest
	srv := fakeServer(t, "  The pump failed.  ", &got)

	cfg := config.DefaultConfig().LLM
	cfg.OllamaHost = srv.URL + "/"

	c, err := New("ollama:phi3", cfg)
	require.NoError(t, err)
	assert.Equal(t, "ollama:phi3", c.ModelName())

	answer, err := c.Generate(context.Background(), "why did it fail?")
	require.NoError(t, err)
	assert.Equal(t, "The pump failed.", answer)
	assert.Equal(t, "phi3", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestClient_OpenAIGenerateWithSystem(t *testing.T) {
	var got chatRequest
	srv := fakeServer(t, "ok", &got)

	cfg := config.DefaultConfig().LLM
	cfg.OpenAIBaseURL = srv.URL + "/v1"

	c, err := New("openai:gpt-4o-mini", cfg)
	require.NoError(t, err)

	answer, err := c.GenerateWithSystem(context.Background(), "be brief", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig().LLM
	cfg.OllamaHost = srv.URL

	c, err := New("ollama:phi3", cfg)
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "hi")
	assert.Error(t, err)
}
