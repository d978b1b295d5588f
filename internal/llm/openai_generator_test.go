package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIGeneratorReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hypothetical legal answer"}}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
		}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", srv.URL, "gpt-4o-mini")
	out, err := g.Generate(context.Background(), "system", "what is a tort?", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hypothetical legal answer" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOpenAIGeneratorSurfacesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("test-key", srv.URL, "gpt-4o-mini")
	_, err := g.Generate(context.Background(), "", "prompt", 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*NetworkError); !ok {
		t.Fatalf("expected *NetworkError, got %T", err)
	}
}
