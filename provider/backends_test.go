package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muhabbet/model"
	"muhabbet/provider/testutil"
)

// fakeAPI records request bodies and answers with a canned status and body.
type fakeAPI struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
	status int
	body   string
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var decoded map[string]any
		if len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &decoded))
		}

		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.bodies = append(f.bodies, decoded)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func startFake(t *testing.T, status int, body string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{status: status, body: body}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, srv
}

const openAIOK = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1760875200,
  "model": "gpt-4o",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Merhaba, buradayım!"}, "finish_reason": "stop"}]
}`

func TestOpenAIProvider_Complete(t *testing.T) {
	fake, srv := startFake(t, http.StatusOK, openAIOK)
	p, err := NewOpenAIProvider(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), testutil.ImageRequest("Bu ne?"))
	require.NoError(t, err)
	assert.Equal(t, "Merhaba, buradayım!", text)

	require.Equal(t, 1, fake.calls())
	assert.Equal(t, "/chat/completions", fake.paths[0])

	body := fake.bodies[0]
	assert.Equal(t, "gpt-4o", body["model"])
	assert.InDelta(t, 0.8, body["temperature"], 1e-9)
	assert.InDelta(t, 2000, body["max_tokens"], 1e-9)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	parts, ok := user["content"].([]any)
	require.True(t, ok, "user content should be a part array")
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)
	assert.Equal(t, "image_url", image["type"])
	assert.True(t, strings.HasPrefix(image["image_url"].(map[string]any)["url"].(string), "data:image/png;base64,"))
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	_, srv := startFake(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	p, err := NewOpenAIProvider(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), testutil.TextRequest("x"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAIProvider_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   model.ReplyKind
	}{
		{http.StatusTooManyRequests, model.ReplyRateLimited},
		{http.StatusUnauthorized, model.ReplyUnauthorized},
		{http.StatusForbidden, model.ReplyUnauthorized},
		{http.StatusBadRequest, model.ReplyUnclassified},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fake, srv := startFake(t, tt.status, `{"error":{"message":"nope","type":"error","code":null}}`)
			p, err := NewOpenAIProvider(Config{BaseURL: srv.URL, APIKey: "k"})
			require.NoError(t, err)

			_, err = p.Complete(context.Background(), testutil.TextRequest("x"))
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.want, Classify(err))
			assert.Equal(t, 1, fake.calls(), "retries must be disabled")
		})
	}
}

func TestOpenAIProvider_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := NewOpenAIProvider(Config{BaseURL: url, APIKey: "k"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), testutil.TextRequest("x"))
	require.Error(t, err)
	assert.Equal(t, model.ReplyNetworkUnreachable, Classify(err))
}

func TestGateway_OpenAIRateLimitEndToEnd(t *testing.T) {
	_, srv := startFake(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`)
	p, err := NewOpenAIProvider(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	reply := newTestGateway(p, p).Complete(context.Background(), testutil.TextRequest("x"), false)

	assert.Equal(t, model.ReplyRateLimited, reply.Kind)
	assert.Equal(t, TextRateLimited, reply.Text)
}

const anthropicOK = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5-20250929",
  "content": [{"type": "text", "text": "Selam "}, {"type": "text", "text": "dostum"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 3}
}`

func TestAnthropicProvider_Complete(t *testing.T) {
	fake, srv := startFake(t, http.StatusOK, anthropicOK)
	p, err := NewAnthropicProvider(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), testutil.TextRequest("Merhaba"))
	require.NoError(t, err)
	assert.Equal(t, "Selam dostum", text)

	require.Equal(t, 1, fake.calls())
	assert.Equal(t, "/v1/messages", fake.paths[0])
	body := fake.bodies[0]
	assert.InDelta(t, 2000, body["max_tokens"], 1e-9)
	assert.InDelta(t, 0.8, body["temperature"], 1e-9)

	system, ok := body["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "persona", system[0].(map[string]any)["text"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestAnthropicProvider_RateLimited(t *testing.T) {
	fake, srv := startFake(t, http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow"}}`)
	p, err := NewAnthropicProvider(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), testutil.TextRequest("x"))
	require.Error(t, err)
	assert.Equal(t, model.ReplyRateLimited, Classify(err))
	assert.Equal(t, 1, fake.calls())
}

func TestOllamaProvider_Complete(t *testing.T) {
	fake, srv := startFake(t, http.StatusOK,
		`{"model":"llava","created_at":"2026-10-19T12:00:00Z","message":{"role":"assistant","content":"Görselde bir kedi var."},"done":true}`+"\n")
	p, err := NewOllamaProvider(Config{BaseURL: srv.URL, Model: "llava"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), testutil.ImageRequest("Bu ne?"))
	require.NoError(t, err)
	assert.Equal(t, "Görselde bir kedi var.", text)

	require.Equal(t, 1, fake.calls())
	assert.Equal(t, "/api/chat", fake.paths[0])
	body := fake.bodies[0]
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, "llava", body["model"])

	messages := body["messages"].([]any)
	user := messages[1].(map[string]any)
	images, ok := user["images"].([]any)
	require.True(t, ok)
	assert.Equal(t, testutil.TinyPNG, images[0])
}

func TestOllamaProvider_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := NewOllamaProvider(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), testutil.TextRequest("x"))
	require.Error(t, err)
	assert.Equal(t, model.ReplyNetworkUnreachable, Classify(err))
}
