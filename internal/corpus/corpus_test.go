package corpus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/semaj90/legal-rag-core/internal/embedding"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
	"github.com/semaj90/legal-rag-core/internal/router"
	"github.com/semaj90/legal-rag-core/internal/vector"
)

// fakeVectorAdapter is an in-memory vector.Adapter double, following the
// pattern of internal/vector's own fakeAdapter (used by migrate_test.go).
type fakeVectorAdapter struct {
	collections map[string]int
	points      map[string]map[string]ragmodel.Chunk
	deleted     []string
}

func newFakeVectorAdapter() *fakeVectorAdapter {
	return &fakeVectorAdapter{collections: map[string]int{}, points: map[string]map[string]ragmodel.Chunk{}}
}

func (f *fakeVectorAdapter) EnsureCollection(ctx context.Context, collection string, dims int) error {
	f.collections[collection] = dims
	if f.points[collection] == nil {
		f.points[collection] = map[string]ragmodel.Chunk{}
	}
	return nil
}

func (f *fakeVectorAdapter) Upsert(ctx context.Context, collection, id string, vec []float32, chunk ragmodel.Chunk) error {
	f.points[collection][id] = chunk
	return nil
}

func (f *fakeVectorAdapter) Search(ctx context.Context, collection string, vec []float32, filter vector.Filter, topK int) ([]vector.Hit, error) {
	return nil, nil
}

func (f *fakeVectorAdapter) Scroll(ctx context.Context, collection string, filter vector.Filter, batchSize int, cursor string) (vector.ScrollPage, error) {
	var hits []vector.Hit
	for id, c := range f.points[collection] {
		hits = append(hits, vector.Hit{ChunkID: id, Text: c.Text, Metadata: c.Metadata})
	}
	return vector.ScrollPage{Hits: hits, Done: true}, nil
}

func (f *fakeVectorAdapter) SetPayload(ctx context.Context, collection, id string, patch map[string]any) error {
	return nil
}

func (f *fakeVectorAdapter) DeleteWhere(ctx context.Context, collection string, ids []string) error {
	for _, id := range ids {
		delete(f.points[collection], id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

// fakeLexicalIndexer is an in-memory LexicalIndexer double; failNext
// forces the next IndexChunk call to fail, to exercise the compensating
// delete path.
type fakeLexicalIndexer struct {
	indices  map[string]bool
	indexed  map[string]map[string]bool
	failNext bool
	deleted  []string
}

func newFakeLexicalIndexer() *fakeLexicalIndexer {
	return &fakeLexicalIndexer{indices: map[string]bool{}, indexed: map[string]map[string]bool{}}
}

func (f *fakeLexicalIndexer) EnsureIndex(name string) error {
	f.indices[name] = true
	if f.indexed[name] == nil {
		f.indexed[name] = map[string]bool{}
	}
	return nil
}

func (f *fakeLexicalIndexer) IndexChunk(ctx context.Context, index, id string, chunk ragmodel.Chunk) error {
	if f.failNext {
		f.failNext = false
		return errors.New("lexical backend unavailable")
	}
	f.indexed[index][id] = true
	return nil
}

func (f *fakeLexicalIndexer) DeleteWhere(ctx context.Context, index string, ids []string) error {
	for _, id := range ids {
		delete(f.indexed[index], id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

// fakeStore is an in-memory MetadataStore double, avoiding any need for
// a live Postgres instance (mirroring how vector's fakeAdapter avoids a
// live Qdrant instance).
type fakeStore struct {
	rows          map[string]ChunkRow
	reconciliation map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]ChunkRow{}, reconciliation: map[string]bool{}}
}

func (s *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *fakeStore) RecordChunk(ctx context.Context, row ChunkRow) error {
	s.rows[row.ID] = row
	return nil
}

func (s *fakeStore) Stats(ctx context.Context, tenantID string) (Stats, error) {
	var st Stats
	for _, r := range s.rows {
		if r.TenantID != tenantID || !r.RAGIngested {
			continue
		}
		st.ByScope = append(st.ByScope, ScopeCount{Scope: string(r.Scope), Collection: r.Collection, Count: 1})
		if r.IngestedAt.After(st.LastIndexedAt) {
			st.LastIndexedAt = r.IngestedAt
		}
	}
	return st, nil
}

func (s *fakeStore) CollectionsForDoc(ctx context.Context, docID string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range s.rows {
		if r.DocID == docID && !seen[r.Collection] {
			seen[r.Collection] = true
			out = append(out, r.Collection)
		}
	}
	return out, nil
}

func (s *fakeStore) ChunkIDsForDoc(ctx context.Context, docID, collection string) ([]string, error) {
	var out []string
	for id, r := range s.rows {
		if r.DocID == docID && r.Collection == collection {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkRemoved(ctx context.Context, docID string) error {
	for id, r := range s.rows {
		if r.DocID == docID {
			r.RAGIngested = false
			s.rows[id] = r
		}
	}
	return nil
}

func (s *fakeStore) ExpiredLocal(ctx context.Context, asOf time.Time) ([]ChunkRow, error) {
	var out []ChunkRow
	for _, r := range s.rows {
		if r.Scope != ragmodel.ScopeLocal || !r.RAGIngested {
			continue
		}
		if r.IngestedAt.Add(time.Duration(r.TTLDays) * 24 * time.Hour).Before(asOf) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteRows(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

func (s *fakeStore) SetScope(ctx context.Context, docID string, scope ragmodel.ScopeKind) error {
	for id, r := range s.rows {
		if r.DocID == docID {
			r.Scope = scope
			s.rows[id] = r
		}
	}
	return nil
}

func (s *fakeStore) ExtendTTL(ctx context.Context, docID string, extraDays int) error {
	for id, r := range s.rows {
		if r.DocID == docID {
			r.TTLDays += extraDays
			s.rows[id] = r
		}
	}
	return nil
}

func (s *fakeStore) MarkReconciliation(ctx context.Context, chunkID, collection string) error {
	s.reconciliation[chunkID] = true
	return nil
}

func (s *fakeStore) PendingReconciliation(ctx context.Context) ([]ChunkRow, error) {
	var out []ChunkRow
	for id := range s.reconciliation {
		if s.reconciliation[id] {
			out = append(out, ChunkRow{ID: id, Collection: "general"})
		}
	}
	return out, nil
}

func (s *fakeStore) ClearReconciliation(ctx context.Context, chunkID string) error {
	delete(s.reconciliation, chunkID)
	return nil
}

type fakeEmbeddingProvider struct{ dims int }

func (p *fakeEmbeddingProvider) Name() string                            { return "fake" }
func (p *fakeEmbeddingProvider) Dimensions() int                         { return p.dims }
func (p *fakeEmbeddingProvider) DefaultInputTypes() []embedding.InputType { return []embedding.InputType{embedding.InputDocument} }
func (p *fakeEmbeddingProvider) MaxBatchSize() int                       { return 100 }
func (p *fakeEmbeddingProvider) EmbedBatch(ctx context.Context, texts []string, inputType embedding.InputType) ([]embedding.Vector, error) {
	out := make([]embedding.Vector, len(texts))
	for i := range texts {
		out[i] = make(embedding.Vector, p.dims)
	}
	return out, nil
}

func newManager(store *fakeStore, vec *fakeVectorAdapter, lex *fakeLexicalIndexer) *Manager {
	r := router.New(router.Config{}, nil, nil)
	providers := map[ragmodel.EmbeddingProviderName]embedding.Provider{
		ragmodel.ProviderOpenAI: &fakeEmbeddingProvider{dims: 3072},
		ragmodel.ProviderKanon2: &fakeEmbeddingProvider{dims: 1024},
	}
	return New(store, r, vec, lex, providers, nil, Config{})
}

func TestIngestWritesToBothBackendsAndRecordsRows(t *testing.T) {
	store := newFakeStore()
	vec := newFakeVectorAdapter()
	lex := newFakeLexicalIndexer()
	m := newManager(store, vec, lex)

	result, err := m.Ingest(context.Background(), IngestRequest{
		DocID: "doc-1", Text: "This is a short general document about contracts.",
		DocType: ragmodel.DocTypeGeneral, TenantID: "T1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ChunksWritten == 0 {
		t.Fatalf("expected at least one chunk written")
	}
	if result.Degraded {
		t.Fatalf("expected a clean ingest to not be degraded")
	}
	if len(vec.points[result.Collection]) != result.ChunksWritten {
		t.Fatalf("expected %d vector points, got %d", result.ChunksWritten, len(vec.points[result.Collection]))
	}
	if len(lex.indexed[result.Collection]) != result.ChunksWritten {
		t.Fatalf("expected %d lexical entries, got %d", result.ChunksWritten, len(lex.indexed[result.Collection]))
	}
	if len(store.rows) != result.ChunksWritten {
		t.Fatalf("expected %d bookkeeping rows, got %d", result.ChunksWritten, len(store.rows))
	}
}

func TestIngestDefaultsToLocalScopeAndConfiguredTTL(t *testing.T) {
	store := newFakeStore()
	m := newManager(store, newFakeVectorAdapter(), newFakeLexicalIndexer())

	_, err := m.Ingest(context.Background(), IngestRequest{DocID: "doc-2", Text: "a short note", DocType: ragmodel.DocTypeGeneral, TenantID: "T1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range store.rows {
		if row.Scope != ragmodel.ScopeLocal {
			t.Fatalf("expected default scope LOCAL, got %q", row.Scope)
		}
		if row.TTLDays != 7 {
			t.Fatalf("expected default ttl_days 7, got %d", row.TTLDays)
		}
	}
}

func TestIngestCompensatesWhenLexicalWriteFailsAfterVectorSucceeds(t *testing.T) {
	store := newFakeStore()
	vec := newFakeVectorAdapter()
	lex := newFakeLexicalIndexer()
	lex.failNext = true
	m := newManager(store, vec, lex)

	result, err := m.Ingest(context.Background(), IngestRequest{DocID: "doc-3", Text: "a single short chunk of text", DocType: ragmodel.DocTypeGeneral, TenantID: "T1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Fatalf("expected Degraded=true when a chunk's lexical write fails")
	}
	if len(vec.deleted) == 0 {
		t.Fatalf("expected a compensating vector delete for the failed chunk")
	}
	if len(store.rows) != 0 {
		t.Fatalf("expected no bookkeeping row recorded for the failed chunk, got %d", len(store.rows))
	}
}

func TestRemoveDeletesFromBothBackendsAndMarksRAGIngestedFalse(t *testing.T) {
	store := newFakeStore()
	vec := newFakeVectorAdapter()
	lex := newFakeLexicalIndexer()
	m := newManager(store, vec, lex)

	result, err := m.Ingest(context.Background(), IngestRequest{DocID: "doc-4", Text: "remove me please", DocType: ragmodel.DocTypeGeneral, TenantID: "T1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Remove(context.Background(), "doc-4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec.points[result.Collection]) != 0 {
		t.Fatalf("expected vector points removed, got %d remaining", len(vec.points[result.Collection]))
	}
	if len(lex.indexed[result.Collection]) != 0 {
		t.Fatalf("expected lexical entries removed, got %d remaining", len(lex.indexed[result.Collection]))
	}
	for _, row := range store.rows {
		if row.RAGIngested {
			t.Fatalf("expected rag_ingested=false after Remove")
		}
	}
}

func TestSweepExpiredLocalDeletesOnlyExpiredRows(t *testing.T) {
	store := newFakeStore()
	vec := newFakeVectorAdapter()
	lex := newFakeLexicalIndexer()
	_ = vec.EnsureCollection(context.Background(), "general", 3072)
	_ = vec.Upsert(context.Background(), "general", "expired-1", make([]float32, 3072), ragmodel.Chunk{})
	_ = vec.Upsert(context.Background(), "general", "fresh-1", make([]float32, 3072), ragmodel.Chunk{})
	_ = lex.EnsureIndex("general")

	store.rows["expired-1"] = ChunkRow{ID: "expired-1", DocID: "d1", Scope: ragmodel.ScopeLocal, Collection: "general", RAGIngested: true, TTLDays: 1, IngestedAt: time.Now().Add(-48 * time.Hour)}
	store.rows["fresh-1"] = ChunkRow{ID: "fresh-1", DocID: "d2", Scope: ragmodel.ScopeLocal, Collection: "general", RAGIngested: true, TTLDays: 7, IngestedAt: time.Now()}

	m := newManager(store, vec, lex)
	swept, err := m.SweepExpiredLocal(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept row, got %d", swept)
	}
	if _, ok := vec.points["general"]["expired-1"]; ok {
		t.Fatalf("expected expired-1 deleted from vector store")
	}
	if _, ok := vec.points["general"]["fresh-1"]; !ok {
		t.Fatalf("expected fresh-1 to remain in vector store")
	}
	if _, ok := store.rows["expired-1"]; ok {
		t.Fatalf("expected expired-1 row removed from bookkeeping")
	}
}

func TestExtendTTLRejectsNonPositiveDays(t *testing.T) {
	m := newManager(newFakeStore(), newFakeVectorAdapter(), newFakeLexicalIndexer())
	if err := m.ExtendTTL(context.Background(), "doc-1", 0); err == nil {
		t.Fatalf("expected an error for extra_days=0")
	}
}

func TestPromoteUpdatesBookkeepingScope(t *testing.T) {
	store := newFakeStore()
	vec := newFakeVectorAdapter()
	lex := newFakeLexicalIndexer()
	m := newManager(store, vec, lex)

	result, err := m.Ingest(context.Background(), IngestRequest{DocID: "doc-5", Text: "promote this document please", DocType: ragmodel.DocTypeGeneral, TenantID: "T1", Scope: ragmodel.ScopeLocal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = result

	if err := m.Promote(context.Background(), "doc-5", ragmodel.ScopePrivate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range store.rows {
		if row.DocID == "doc-5" && row.Scope != ragmodel.ScopePrivate {
			t.Fatalf("expected scope PRIVATE after promote, got %q", row.Scope)
		}
	}
}

func TestBackfillDryRunReportsMatchesWithoutPatching(t *testing.T) {
	vec := newFakeVectorAdapter()
	_ = vec.EnsureCollection(context.Background(), "general", 3072)
	_ = vec.Upsert(context.Background(), "general", "c1", make([]float32, 3072), ragmodel.Chunk{})
	_ = vec.Upsert(context.Background(), "general", "c2", make([]float32, 3072), ragmodel.Chunk{})
	m := newManager(newFakeStore(), vec, newFakeLexicalIndexer())

	result, err := m.Backfill(context.Background(), "general", vector.Filter{}, map[string]any{"jurisdiction": "US"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Matched != 2 {
		t.Fatalf("expected 2 matched, got %d", result.Matched)
	}
	if result.Patched != 0 {
		t.Fatalf("expected 0 patched in dry-run mode, got %d", result.Patched)
	}
}

func TestSweepReconciliationMarkersClearsOnSuccessfulDelete(t *testing.T) {
	store := newFakeStore()
	store.reconciliation["stuck-1"] = true
	vec := newFakeVectorAdapter()
	m := newManager(store, vec, newFakeLexicalIndexer())

	cleared, err := m.SweepReconciliationMarkers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared marker, got %d", cleared)
	}
	if store.reconciliation["stuck-1"] {
		t.Fatalf("expected reconciliation marker cleared")
	}
}
