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
)

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}

func TestEmbedBatch_ReordersByIndex(t *testing.T) {
	var got embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0,1],"index":1},{"embedding":[1,0],"index":0}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, []string{"first", "second"}, got.Input)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, _ := NewEmbeddingService(Config{APIKey: "k"})
	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	}))
	defer server.Close()

	svc, _ := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, domain.ErrServiceError)
}

func TestEmbedBatch_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc, _ := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
