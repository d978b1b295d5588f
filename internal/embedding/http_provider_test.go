package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVoyageProviderParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req voyageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := voyageResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{0.1, 0.2, 0.3}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewVoyageV4(srv.URL, "test-key", nil)
	vecs, err := p.EmbedBatch(context.Background(), []string{"a law", "another law"}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if len(vecs[0]) != 3 {
		t.Fatalf("expected parsed embedding dims, got %d", len(vecs[0]))
	}
}

func TestKanon2ProviderUsesTaskByInputType(t *testing.T) {
	var gotTask string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req kanon2Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotTask = req.Task
		_ = json.NewEncoder(w).Encode(kanon2Response{Embeddings: [][]float32{{1, 2}}})
	}))
	defer srv.Close()

	p := NewKanon2(srv.URL, "key", nil)
	_, err := p.EmbedBatch(context.Background(), []string{"query text"}, InputQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTask != "retrieval/query" {
		t.Fatalf("expected retrieval/query task, got %q", gotTask)
	}
}

func TestHTTPProviderRetriesOnQuotaError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(jurisbertResponse{Embeddings: [][]float32{{0.5}}})
	}))
	defer srv.Close()

	p := NewJurisBERT(srv.URL, nil)
	vecs, err := p.EmbedBatch(context.Background(), []string{"texto legal"}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
	if len(vecs) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vecs))
	}
}

func TestHTTPProviderZeroLengthTextSkipsWire(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(jurisbertResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	p := NewJurisBERT(srv.URL, nil)
	vecs, err := p.EmbedBatch(context.Background(), []string{""}, InputDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected zero-length text to skip the wire, got %d calls", calls)
	}
	if len(vecs[0]) != 768 {
		t.Fatalf("expected zero vector sized to provider dims, got %d", len(vecs[0]))
	}
}

func TestHTTPProviderSurfacesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	p := NewJurisBERT(srv.URL, nil)
	_, err := p.EmbedBatch(context.Background(), []string{"x"}, InputDocument)
	if err == nil {
		t.Fatalf("expected network error")
	}
	if _, ok := err.(*NetworkError); !ok {
		t.Fatalf("expected *NetworkError, got %T", err)
	}
}
