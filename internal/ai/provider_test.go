package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" Ollama ", func(ctx context.Context) (Provider, error) {
		return NewOllamaProvider(""), nil
	})

	p, err := reg.Get(context.Background(), "OLLAMA")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = reg.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, []string{"ollama"}, reg.Names())
}

func TestMemoize(t *testing.T) {
	calls := 0
	f := Memoize(func(ctx context.Context) (Provider, error) {
		calls++
		if calls == 1 {
			return nil, ErrNotConfigured
		}
		return NewOllamaProvider(""), nil
	})

	_, err := f(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	a, err := f(context.Background())
	require.NoError(t, err)
	b, err := f(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 2, calls)
}

func TestConstructors_RequireCredentials(t *testing.T) {
	_, err := NewOpenAIProvider("", "")
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = NewOpenRouterProvider("", " ", "", "")
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = NewGeminiProvider(context.Background(), "", "")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestOllama_CompleteJSONRequestsJSONFormat(t *testing.T) {
	var got ollamaChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResp{Message: Message{Role: "assistant", Content: `{"ok":true}`}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL)
	out, err := p.CompleteJSON(context.Background(), Request{
		Model:       "llama3",
		System:      "sys",
		Messages:    UserPrompt("hi"),
		Temperature: 0.3,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "json", got.Format)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, 100, got.Options.NumPredict)
}

func TestOllama_SearchUnsupported(t *testing.T) {
	_, err := NewOllamaProvider("").CompleteWithSearch(context.Background(), Request{Model: "m"})
	assert.ErrorIs(t, err, ErrSearchUnsupported)
}

func TestOpenRouter_SearchCollectsAnnotations(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}","annotations":[
			{"type":"url_citation","url_citation":{"url":"https://a.test/x","title":"X"}},
			{"type":"other"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(srv.URL, "key", "", "")
	require.NoError(t, err)
	out, err := p.CompleteWithSearch(context.Background(), Request{Model: "m", Messages: UserPrompt("q")})
	require.NoError(t, err)
	assert.Equal(t, "{}", out.Text)
	assert.Equal(t, []Source{{Title: "X", URL: "https://a.test/x"}}, out.Sources)

	plugins, ok := got["plugins"].([]any)
	require.True(t, ok)
	assert.Equal(t, "web", plugins[0].(map[string]any)["id"])
}

func TestOpenRouter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(srv.URL, "key", "", "")
	require.NoError(t, err)
	_, err = p.CompleteJSON(context.Background(), Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAI_CompleteJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"a\":1}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("key", srv.URL)
	require.NoError(t, err)
	out, err := p.CompleteJSON(context.Background(), Request{Model: "gpt-4o", System: "s", Messages: UserPrompt("u")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	rf, ok := got["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])
}

func TestOpenAI_CompleteWithSearchReadsOutputText(t *testing.T) {
	var got responsesReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"output":[
			{"type":"web_search_call"},
			{"type":"message","content":[{"type":"output_text","text":"{\"x\":1}",
				"annotations":[{"type":"url_citation","url":"https://g.test/r","title":"Rig"}]}]}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("key", srv.URL)
	require.NoError(t, err)
	out, err := p.CompleteWithSearch(context.Background(), Request{Model: "gpt-4.1", Messages: UserPrompt("find it")})
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, out.Text)
	assert.Equal(t, []Source{{Title: "Rig", URL: "https://g.test/r"}}, out.Sources)
	assert.Equal(t, "find it", got.Input)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "web_search_preview", got.Tools[0].Type)
}

func TestOpenAI_CompleteWithSearchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("key", srv.URL)
	require.NoError(t, err)
	_, err = p.CompleteWithSearch(context.Background(), Request{Model: "m"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func geminiServer(t *testing.T, got *map[string]any, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGemini_CompleteJSONSetsMIMEType(t *testing.T) {
	var got map[string]any
	srv := geminiServer(t, &got, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"a\":1}"}]}}]}`)

	p, err := NewGeminiProvider(context.Background(), "key", srv.URL)
	require.NoError(t, err)
	out, err := p.CompleteJSON(context.Background(), Request{
		Model:     "gemini-test",
		System:    "sys",
		Messages:  UserPrompt("u"),
		MaxTokens: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	gc, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok, got)
	assert.Equal(t, "application/json", gc["responseMimeType"])
	assert.EqualValues(t, 200, gc["maxOutputTokens"])
	assert.NotNil(t, got["systemInstruction"])
	assert.Nil(t, got["tools"])
}

func TestGemini_CompleteWithSearchMapsGrounding(t *testing.T) {
	var got map[string]any
	srv := geminiServer(t, &got, `{"candidates":[{
		"content":{"role":"model","parts":[{"text":"{\"x\":1}"}]},
		"groundingMetadata":{"groundingChunks":[
			{"web":{"uri":"https://g.test/rig","title":"Rig rundown"}},
			{"web":{"title":"no uri"}},
			{}
		]}}]}`)

	p, err := NewGeminiProvider(context.Background(), "key", srv.URL)
	require.NoError(t, err)
	out, err := p.CompleteWithSearch(context.Background(), Request{Model: "gemini-test", Messages: UserPrompt("find it")})
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, out.Text)
	assert.Equal(t, []Source{{Title: "Rig rundown", URL: "https://g.test/rig"}}, out.Sources)

	tools, ok := got["tools"].([]any)
	require.True(t, ok, got)
	require.Len(t, tools, 1)
	assert.Contains(t, tools[0], "googleSearch")
	if gc, ok := got["generationConfig"].(map[string]any); ok {
		assert.Nil(t, gc["responseMimeType"])
	}
}

func TestGemini_EmptyResponse(t *testing.T) {
	var got map[string]any
	srv := geminiServer(t, &got, `{"candidates":[]}`)

	p, err := NewGeminiProvider(context.Background(), "key", srv.URL)
	require.NoError(t, err)
	_, err = p.CompleteJSON(context.Background(), Request{Model: "gemini-test", Messages: UserPrompt("u")})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
