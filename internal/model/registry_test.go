package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codedesk/internal/config"
	"codedesk/internal/types"
)

// fakeCompletions serves the /chat/completions wire format the local
// provider speaks.
func fakeCompletions(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]string{"content": "local answer"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

// localOnlyConfig leaves every hosted provider unconfigured.
func localOnlyConfig(baseURL string) config.ModelsConfig {
	return config.ModelsConfig{
		Local: config.ProviderConfig{
			BaseURL: baseURL,
			Model:   "test-model",
			Timeout: "5s",
		},
		RoleDefaults: map[string][]string{
			"chat":      {"local"},
			"code":      {"local"},
			"reasoning": {"local"},
		},
	}
}

func TestRegistryGeneratesThroughLocalProvider(t *testing.T) {
	srv := fakeCompletions(t)
	defer srv.Close()

	r, err := NewRegistry(localOnlyConfig(srv.URL))
	require.NoError(t, err)

	gen, err := r.Generate(context.Background(), "", "explain this", types.GenerateOptions{Role: types.AgentChat})
	require.NoError(t, err)
	assert.Equal(t, "local answer", gen.Text)
	assert.Equal(t, "local/test-model", gen.ModelID)
	assert.Equal(t, 12, gen.Usage.TotalTokens)
	assert.Equal(t, "stop", gen.FinishReason)
}

func TestRegistryResolvesRegisteredIDs(t *testing.T) {
	srv := fakeCompletions(t)
	defer srv.Close()

	r, err := NewRegistry(localOnlyConfig(srv.URL))
	require.NoError(t, err)

	// The configured model is addressable by tag, tag/model, and bare name.
	for _, id := range []string{"local", "local/test-model", "test-model"} {
		gen, err := r.Generate(context.Background(), id, "hi", types.GenerateOptions{Role: types.AgentChat})
		require.NoError(t, err, "id %q", id)
		assert.Equal(t, "local answer", gen.Text)
	}
}

func TestRegistryFallsBackOnUnknownID(t *testing.T) {
	srv := fakeCompletions(t)
	defer srv.Close()

	r, err := NewRegistry(localOnlyConfig(srv.URL))
	require.NoError(t, err)

	gen, err := r.Generate(context.Background(), "gpt-42-ultra", "hi", types.GenerateOptions{Role: types.AgentCode})
	require.NoError(t, err, "unknown ids fall back to the role default")
	assert.Equal(t, "local answer", gen.Text)
}

func TestRegistryNoProvidersAvailable(t *testing.T) {
	r, err := NewRegistry(config.ModelsConfig{})
	require.NoError(t, err)

	_, err = r.Generate(context.Background(), "", "hi", types.GenerateOptions{Role: types.AgentChat})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeModelNotAvailable))
}

func TestRegistryStatus(t *testing.T) {
	srv := fakeCompletions(t)
	defer srv.Close()

	r, err := NewRegistry(localOnlyConfig(srv.URL))
	require.NoError(t, err)

	status := r.Status()
	assert.True(t, status["local"])
	assert.False(t, status["openai"])
	assert.False(t, status["anthropic"])
	assert.False(t, status["gemini"])
}

func TestRegisterModel(t *testing.T) {
	srv := fakeCompletions(t)
	defer srv.Close()

	r, err := NewRegistry(localOnlyConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, r.RegisterModel("fast", ProviderLocal, "test-model"))
	gen, err := r.Generate(context.Background(), "fast", "hi", types.GenerateOptions{Role: types.AgentChat})
	require.NoError(t, err)
	assert.Equal(t, "local answer", gen.Text)

	assert.Error(t, r.RegisterModel("bad", ProviderTag("martian"), "x"))
}
