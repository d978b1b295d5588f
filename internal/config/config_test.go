package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RAG_ENABLE_CRAG", "")
	cfg := Load()
	if !cfg.EnableCRAG {
		t.Fatalf("expected EnableCRAG default true")
	}
	if cfg.CRAGMaxRetries != 2 {
		t.Fatalf("expected default max retries 2, got %d", cfg.CRAGMaxRetries)
	}
	if cfg.RRFK != 60 {
		t.Fatalf("expected default rrf k 60, got %d", cfg.RRFK)
	}
}

func TestLoadRouterOverrides(t *testing.T) {
	t.Setenv("RAG_ROUTER_BR_PROVIDER", "voyage_context")
	t.Setenv("RAG_ROUTER_BR_COLLECTION", "legal_br_ctx3")
	cfg := Load()
	if cfg.RouterProviderOverride["BR"] != "voyage_context" {
		t.Fatalf("expected BR provider override, got %q", cfg.RouterProviderOverride["BR"])
	}
	if cfg.RouterCollectionOverride["BR"] != "legal_br_ctx3" {
		t.Fatalf("expected BR collection override, got %q", cfg.RouterCollectionOverride["BR"])
	}
}

func TestEnvBoolParsing(t *testing.T) {
	cases := map[string]bool{"1": true, "true": true, "YES": true, "on": true, "0": false, "false": false, "no": false, "off": false}
	for raw, want := range cases {
		t.Setenv("RAG_TEST_BOOL", raw)
		if got := envBool("RAG_TEST_BOOL", !want); got != want {
			t.Fatalf("envBool(%q) = %v, want %v", raw, got, want)
		}
	}
}
