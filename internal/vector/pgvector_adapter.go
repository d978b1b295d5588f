package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/semaj90/legal-rag-core/internal/ragerr"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// PGVectorAdapter is the legacy store (spec.md §4.D / §9 Open Question:
// include_legacy at search time and migrate_collection for a one-way
// batch move off it). One Postgres table per "collection", named
// rag_<collection>, matching the teacher's single-table-per-service
// convention (sse-rag-service, unified-rag-service).
type PGVectorAdapter struct {
	pool *pgxpool.Pool
	dims map[string]int
}

func NewPGVectorAdapter(pool *pgxpool.Pool) *PGVectorAdapter {
	return &PGVectorAdapter{pool: pool, dims: make(map[string]int)}
}

func tableName(collection string) string { return "rag_" + collection }

func (p *PGVectorAdapter) EnsureCollection(ctx context.Context, collection string, dims int) error {
	table := tableName(collection)
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			text TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, dims)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: ensure_collection %s", collection), err)
	}
	p.dims[collection] = dims
	return nil
}

func (p *PGVectorAdapter) checkDims(collection string, vec []float32) error {
	want, ok := p.dims[collection]
	if !ok {
		return nil
	}
	if len(vec) != want {
		return ragerr.New(ragerr.DimensionMismatch, fmt.Sprintf("vector: collection %s expects dims=%d, got %d", collection, want, len(vec)))
	}
	return nil
}

func (p *PGVectorAdapter) Upsert(ctx context.Context, collection, id string, vec []float32, chunk ragmodel.Chunk) error {
	if err := p.checkDims(collection, vec); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return ragerr.Wrap(ragerr.InvalidInput, fmt.Sprintf("vector: marshal metadata for %s", id), err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, text, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET embedding = $2, text = $3, metadata = $4
	`, tableName(collection))
	if _, err := p.pool.Exec(ctx, query, id, pgvector.NewVector(vec), chunk.Text, metaJSON); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: upsert %s/%s", collection, id), err)
	}
	return nil
}

func (p *PGVectorAdapter) Search(ctx context.Context, collection string, vec []float32, filter Filter, topK int) ([]Hit, error) {
	if err := p.checkDims(collection, vec); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 20
	}

	query := fmt.Sprintf(`
		SELECT id, text, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, tableName(collection))

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vec), topK*4)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: search %s", collection), err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var id, text string
		var metaJSON []byte
		var score float64
		if err := rows.Scan(&id, &text, &metaJSON, &score); err != nil {
			return nil, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: scan row in %s", collection), err)
		}
		var meta ragmodel.ChunkMetadata
		_ = json.Unmarshal(metaJSON, &meta)
		if !Allows(meta, filter) {
			continue
		}
		hits = append(hits, Hit{ChunkID: id, Score: score, Metadata: meta, Text: text})
		if len(hits) >= topK {
			break
		}
	}
	return hits, rows.Err()
}

func (p *PGVectorAdapter) Scroll(ctx context.Context, collection string, filter Filter, batchSize int, cursor string) (ScrollPage, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	query := fmt.Sprintf(`
		SELECT id, text, metadata FROM %s
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, tableName(collection))

	rows, err := p.pool.Query(ctx, query, cursor, batchSize)
	if err != nil {
		return ScrollPage{}, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: scroll %s", collection), err)
	}
	defer rows.Close()

	var page ScrollPage
	count := 0
	for rows.Next() {
		var id, text string
		var metaJSON []byte
		if err := rows.Scan(&id, &text, &metaJSON); err != nil {
			return ScrollPage{}, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: scan row in %s", collection), err)
		}
		count++
		var meta ragmodel.ChunkMetadata
		_ = json.Unmarshal(metaJSON, &meta)
		page.NextCursor = id
		if !Allows(meta, filter) {
			continue
		}
		page.Hits = append(page.Hits, Hit{ChunkID: id, Metadata: meta, Text: text})
	}
	page.Done = count < batchSize
	return page, rows.Err()
}

func (p *PGVectorAdapter) SetPayload(ctx context.Context, collection, id string, patch map[string]any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return ragerr.Wrap(ragerr.InvalidInput, fmt.Sprintf("vector: marshal patch for %s", id), err)
	}
	query := fmt.Sprintf(`UPDATE %s SET metadata = metadata || $2::jsonb WHERE id = $1`, tableName(collection))
	if _, err := p.pool.Exec(ctx, query, id, patchJSON); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: set_payload %s/%s", collection, id), err)
	}
	return nil
}

func (p *PGVectorAdapter) DeleteWhere(ctx context.Context, collection string, ids []string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, tableName(collection))
	if _, err := p.pool.Exec(ctx, query, ids); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: delete_where %s", collection), err)
	}
	return nil
}

var _ Adapter = (*PGVectorAdapter)(nil)
var _ Adapter = (*QdrantAdapter)(nil)
