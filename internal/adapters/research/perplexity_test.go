package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
)

func TestClient_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Will it happen?")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Sentiment is bullish."}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	got, err := c.Summarize(context.Background(), "Will it happen?")
	require.NoError(t, err)
	assert.Equal(t, "Sentiment is bullish.", got)
}

func TestClient_Summarize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad-key").Summarize(context.Background(), "topic")
	assert.ErrorIs(t, err, domain.ErrAnalysis)
}

func TestClient_Summarize_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Summarize(context.Background(), "topic")
	assert.ErrorIs(t, err, domain.ErrAnalysis)
}
