package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIProviderParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3]}
			],
			"model": "text-embedding-3-large",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", srv.URL, nil)
	vecs, err := p.EmbedBatch(context.Background(), []string{"a legal question"}, InputQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 3 {
		t.Fatalf("expected one 3-dim vector, got %+v", vecs)
	}
}

func TestOpenAIProviderZeroLengthTextSkipsWire(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"m","usage":{"prompt_tokens":0,"total_tokens":0}}`))
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", srv.URL, nil)
	vecs, err := p.EmbedBatch(context.Background(), []string{""}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected zero-length text to skip the wire, got %d calls", calls)
	}
	if len(vecs[0]) != 3072 {
		t.Fatalf("expected zero vector sized to provider dims, got %d", len(vecs[0]))
	}
}

func TestOpenAIProviderSurfacesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", srv.URL, nil)
	_, err := p.EmbedBatch(context.Background(), []string{"text"}, InputDocument)
	if err == nil {
		t.Fatalf("expected network error")
	}
	if _, ok := err.(*NetworkError); !ok {
		t.Fatalf("expected *NetworkError, got %T", err)
	}
}
