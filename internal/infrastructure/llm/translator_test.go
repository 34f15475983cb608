package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/logging"
)

func TestTranslateWithoutKey(t *testing.T) {
	t.Parallel()

	tr := NewTranslator(config.LLMConfig{Model: "deepseek-chat"}, logging.Discard())
	assert.Equal(t, "Kebijakan Nikel (untranslated)", tr.Translate(context.Background(), "Kebijakan Nikel"))
}

func TestTranslateSuccess(t *testing.T) {
	t.Parallel()

	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth, path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  新镍政策 \n"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	tr := NewTranslator(config.LLMConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL,
		Model:   "deepseek-chat",
		Timeout: 5 * time.Second,
	}, logging.Discard())

	out := tr.Translate(context.Background(), "Kebijakan Nikel Baru")
	assert.Equal(t, "新镍政策", out)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "deepseek-chat", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Kebijakan Nikel Baru", got.Messages[1].Content)
}

func TestTranslateFailureReturnsOriginal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	tr := NewTranslator(config.LLMConfig{APIKey: "k", BaseURL: server.URL, Model: "m"}, logging.Discard())
	assert.Equal(t, "Kebijakan Nikel", tr.Translate(context.Background(), "Kebijakan Nikel"))
}
