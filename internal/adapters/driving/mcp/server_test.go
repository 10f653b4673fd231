package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("chat only creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingChatService)
	assert.NoError(t, (&Ports{
		Chat:       &mockChatService{},
		Emails:     &mockEmailService{},
		Categories: &mockCategoryService{},
	}).Validate())
}

func TestServer_HandlerRejectsPlainGet(t *testing.T) {
	server, err := NewServer(&Ports{Chat: &mockChatService{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.GreaterOrEqual(t, rec.Code, 400, "a GET without a session is refused")
}

func TestServer_RunHTTPStopsWithContext(t *testing.T) {
	server, err := NewServer(&Ports{Chat: &mockChatService{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
