package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hub-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFillTemplate(t *testing.T) {
	var received FillRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/template-fill", r.URL.Path)
		require.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FillResponse{Content: "Orçamento preenchido", Model: "gpt-4o"})
	}))
	defer server.Close()

	client := NewClient(&config.AIConfig{
		BaseURL: server.URL,
		APIKey:  "test-api-key",
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	resp, err := client.FillTemplate(context.Background(), FillRequest{
		TemplateSlug:  "quote",
		Transcription: "consulta de avaliação",
		Language:      "pt-BR",
	})
	require.NoError(t, err)

	assert.Equal(t, "Orçamento preenchido", resp.Content)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, "quote", received.TemplateSlug)
}

func TestFillTemplate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&config.AIConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	_, err := client.FillTemplate(context.Background(), FillRequest{TemplateSlug: "quote"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFillTemplate_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&config.AIConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FillTemplate(ctx, FillRequest{TemplateSlug: "quote"})
	require.Error(t, err)
}
