// Package vector implements the Vector Backend Adapter (spec.md §4.C):
// a qdrant/go-client-backed primary store and a pgvector-go/pgx-backed
// legacy store, both behind the same Adapter interface so the
// orchestrator's fan-out never needs to know which one it's talking
// to. Grounded on intelligencedev-manifold's
// internal/persistence/databases/qdrant_vector.go (Qdrant) and the
// teacher's sse-rag-service/main.go raw-pgx pgvector querying
// (pgvector).
package vector

import (
	"context"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// Hit is one vector search result (spec.md §4.C).
type Hit struct {
	ChunkID  string
	Score    float64
	Metadata ragmodel.ChunkMetadata
	Text     string
}

// Filter mirrors the lexical ScopeFilter. Vector backends apply it in Go
// (via Allows) to the hits the store returns; it is not pushed down as a
// payload filter or SQL WHERE predicate.
type Filter struct {
	TenantID     string
	CaseID       string
	GroupIDs     []string
	UserID       string
	AllowedUsers []string
}

// ScrollPage is one page of a Scroll call.
type ScrollPage struct {
	Hits       []Hit
	NextCursor string
	Done       bool
}

// Adapter is the uniform contract of spec.md §4.C. Dimensional
// mismatch between a vector and its collection's declared dimensions
// is a fatal error (DimensionMismatch), enforced by each
// implementation before the call crosses the wire.
type Adapter interface {
	EnsureCollection(ctx context.Context, collection string, dims int) error
	Upsert(ctx context.Context, collection, id string, vec []float32, chunk ragmodel.Chunk) error
	Search(ctx context.Context, collection string, vec []float32, filter Filter, topK int) ([]Hit, error)
	Scroll(ctx context.Context, collection string, filter Filter, batchSize int, cursor string) (ScrollPage, error)
	SetPayload(ctx context.Context, collection, id string, patch map[string]any) error
	DeleteWhere(ctx context.Context, collection string, ids []string) error
}
