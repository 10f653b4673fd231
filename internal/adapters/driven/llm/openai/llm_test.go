package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestComplete_StructuredRequestsJSONObject(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"category\":\"HR\"}"}}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "secret", BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	msgs := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "hi"},
	}
	out, err := svc.Complete(context.Background(), msgs, driven.CompletionOptions{Structured: true})

	require.NoError(t, err)
	assert.Equal(t, `{"category":"HR"}`, out)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, msgs, got.Messages)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestComplete_FreeTextOmitsResponseFormat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"answer"}}]}`))
	}))
	defer server.Close()

	svc, _ := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	out, err := svc.Complete(context.Background(), nil, driven.CompletionOptions{})

	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.NotContains(t, raw, "response_format")
}

func TestComplete_ErrorsKeepTaxonomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc, _ := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	_, err := svc.Complete(context.Background(), nil, driven.CompletionOptions{})

	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
}

func TestComplete_NoChoicesIsServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	svc, _ := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	_, err := svc.Complete(context.Background(), nil, driven.CompletionOptions{})

	assert.ErrorIs(t, err, domain.ErrServiceError)
}

func TestHeaders_GitHubModels(t *testing.T) {
	h := Headers(DefaultBaseURL, "tok")
	assert.Equal(t, "Bearer tok", h["Authorization"])
	assert.Equal(t, gitHubAPIVersion, h["X-GitHub-Api-Version"])

	h = Headers("https://api.openai.com/v1", "tok")
	assert.NotContains(t, h, "X-GitHub-Api-Version")
}

func TestPingURL(t *testing.T) {
	assert.Equal(t, "https://models.github.ai/catalog/models", PingURL(DefaultBaseURL))
	assert.Equal(t, "https://api.openai.com/v1/models", PingURL("https://api.openai.com/v1/"))
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	svc, _ := NewLLMService(LLMConfig{APIKey: "k", BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
