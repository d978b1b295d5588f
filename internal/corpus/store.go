package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semaj90/legal-rag-core/internal/ragerr"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// ChunkRow is one row of the corpus_chunks bookkeeping table: the
// external inventory spec.md §4.N's Stats/retention/reconciliation
// operations read and write, independent of what's actually stored in
// the lexical/vector backends (recovered from corpus_service.py's
// tracking responsibilities per SPEC_FULL.md §4.N).
type ChunkRow struct {
	ID                    string
	DocID                 string
	TenantID              string
	CaseID                string
	Scope                 ragmodel.ScopeKind
	Collection            string
	Jurisdiction          ragmodel.Jurisdiction
	IngestedAt            time.Time
	TTLDays               int
	RAGIngested           bool
	Failed                bool
	ReconciliationMarker  bool
}

// ScopeCount is one row of a Stats breakdown.
type ScopeCount struct {
	Scope      string
	Collection string
	Count      int
}

// Stats is the Corpus Manager's inventory snapshot (spec.md §4.N).
type Stats struct {
	ByScope       []ScopeCount
	PendingCount  int
	FailedCount   int
	LastIndexedAt time.Time
}

// MetadataStore is the narrow persistence seam Manager depends on,
// carved out of a direct pgxpool dependency so tests can substitute an
// in-memory fake (same pattern as internal/pipeline.LexicalSearcher).
type MetadataStore interface {
	EnsureSchema(ctx context.Context) error
	RecordChunk(ctx context.Context, row ChunkRow) error
	Stats(ctx context.Context, tenantID string) (Stats, error)
	CollectionsForDoc(ctx context.Context, docID string) ([]string, error)
	ChunkIDsForDoc(ctx context.Context, docID, collection string) ([]string, error)
	MarkRemoved(ctx context.Context, docID string) error
	ExpiredLocal(ctx context.Context, asOf time.Time) ([]ChunkRow, error)
	DeleteRows(ctx context.Context, ids []string) error
	SetScope(ctx context.Context, docID string, scope ragmodel.ScopeKind) error
	ExtendTTL(ctx context.Context, docID string, extraDays int) error
	MarkReconciliation(ctx context.Context, chunkID, collection string) error
	PendingReconciliation(ctx context.Context) ([]ChunkRow, error)
	ClearReconciliation(ctx context.Context, chunkID string) error
}

// PGMetadataStore implements MetadataStore on Postgres via pgx, in the
// teacher's raw-SQL, one-table-per-concern style (grounded on
// internal/vector.PGVectorAdapter).
type PGMetadataStore struct {
	pool *pgxpool.Pool
}

func NewPGMetadataStore(pool *pgxpool.Pool) *PGMetadataStore {
	return &PGMetadataStore{pool: pool}
}

func (s *PGMetadataStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS corpus_chunks (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			case_id TEXT NOT NULL DEFAULT '',
			scope TEXT NOT NULL,
			collection TEXT NOT NULL,
			jurisdiction TEXT NOT NULL DEFAULT '',
			ingested_at TIMESTAMPTZ NOT NULL,
			ttl_days INT NOT NULL DEFAULT 7,
			rag_ingested BOOLEAN NOT NULL DEFAULT true,
			failed BOOLEAN NOT NULL DEFAULT false,
			reconciliation_marker BOOLEAN NOT NULL DEFAULT false
		);
		CREATE INDEX IF NOT EXISTS corpus_chunks_doc_id_idx ON corpus_chunks (doc_id);
		CREATE INDEX IF NOT EXISTS corpus_chunks_scope_idx ON corpus_chunks (scope, ingested_at);
	`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: ensure_schema", err)
	}
	return nil
}

func (s *PGMetadataStore) RecordChunk(ctx context.Context, row ChunkRow) error {
	const query = `
		INSERT INTO corpus_chunks (id, doc_id, tenant_id, case_id, scope, collection, jurisdiction, ingested_at, ttl_days, rag_ingested, failed, reconciliation_marker)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			scope = $5, collection = $6, jurisdiction = $7, rag_ingested = $10, failed = $11, reconciliation_marker = $12
	`
	_, err := s.pool.Exec(ctx, query, row.ID, row.DocID, row.TenantID, row.CaseID, string(row.Scope), row.Collection,
		string(row.Jurisdiction), row.IngestedAt, row.TTLDays, row.RAGIngested, row.Failed, row.ReconciliationMarker)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("corpus: record_chunk %s", row.ID), err)
	}
	return nil
}

func (s *PGMetadataStore) Stats(ctx context.Context, tenantID string) (Stats, error) {
	var out Stats

	rows, err := s.pool.Query(ctx, `
		SELECT scope, collection, count(*) FROM corpus_chunks
		WHERE tenant_id = $1 AND rag_ingested = true
		GROUP BY scope, collection
	`, tenantID)
	if err != nil {
		return out, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: stats scope breakdown", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc ScopeCount
		if err := rows.Scan(&sc.Scope, &sc.Collection, &sc.Count); err != nil {
			return out, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: stats scan", err)
		}
		out.ByScope = append(out.ByScope, sc)
	}
	if err := rows.Err(); err != nil {
		return out, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: stats rows", err)
	}

	row := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE NOT rag_ingested AND NOT failed),
			count(*) FILTER (WHERE failed),
			coalesce(max(ingested_at), to_timestamp(0))
		FROM corpus_chunks WHERE tenant_id = $1
	`, tenantID)
	if err := row.Scan(&out.PendingCount, &out.FailedCount, &out.LastIndexedAt); err != nil && err != pgx.ErrNoRows {
		return out, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: stats aggregate", err)
	}
	return out, nil
}

func (s *PGMetadataStore) CollectionsForDoc(ctx context.Context, docID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT collection FROM corpus_chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: collections_for_doc", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: collections_for_doc scan", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGMetadataStore) ChunkIDsForDoc(ctx context.Context, docID, collection string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM corpus_chunks WHERE doc_id = $1 AND collection = $2`, docID, collection)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: chunk_ids_for_doc", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: chunk_ids_for_doc scan", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PGMetadataStore) MarkRemoved(ctx context.Context, docID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE corpus_chunks SET rag_ingested = false WHERE doc_id = $1`, docID)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: mark_removed", err)
	}
	return nil
}

func (s *PGMetadataStore) ExpiredLocal(ctx context.Context, asOf time.Time) ([]ChunkRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, doc_id, tenant_id, case_id, collection
		FROM corpus_chunks
		WHERE scope = $1 AND rag_ingested = true
			AND ingested_at + (ttl_days || ' days')::interval < $2
	`, string(ragmodel.ScopeLocal), asOf)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: expired_local", err)
	}
	defer rows.Close()
	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		if err := rows.Scan(&r.ID, &r.DocID, &r.TenantID, &r.CaseID, &r.Collection); err != nil {
			return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: expired_local scan", err)
		}
		r.Scope = ragmodel.ScopeLocal
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGMetadataStore) DeleteRows(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM corpus_chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: delete_rows", err)
	}
	return nil
}

func (s *PGMetadataStore) SetScope(ctx context.Context, docID string, scope ragmodel.ScopeKind) error {
	_, err := s.pool.Exec(ctx, `UPDATE corpus_chunks SET scope = $2 WHERE doc_id = $1`, docID, string(scope))
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: set_scope", err)
	}
	return nil
}

func (s *PGMetadataStore) ExtendTTL(ctx context.Context, docID string, extraDays int) error {
	_, err := s.pool.Exec(ctx, `UPDATE corpus_chunks SET ttl_days = ttl_days + $2 WHERE doc_id = $1`, docID, extraDays)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: extend_ttl", err)
	}
	return nil
}

func (s *PGMetadataStore) MarkReconciliation(ctx context.Context, chunkID, collection string) error {
	_, err := s.pool.Exec(ctx, `UPDATE corpus_chunks SET reconciliation_marker = true, collection = $2 WHERE id = $1`, chunkID, collection)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: mark_reconciliation", err)
	}
	return nil
}

func (s *PGMetadataStore) PendingReconciliation(ctx context.Context) ([]ChunkRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, doc_id, collection FROM corpus_chunks WHERE reconciliation_marker = true`)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: pending_reconciliation", err)
	}
	defer rows.Close()
	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		if err := rows.Scan(&r.ID, &r.DocID, &r.Collection); err != nil {
			return nil, ragerr.Wrap(ragerr.BackendUnavailable, "corpus: pending_reconciliation scan", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGMetadataStore) ClearReconciliation(ctx context.Context, chunkID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE corpus_chunks SET reconciliation_marker = false WHERE id = $1`, chunkID)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, "corpus: clear_reconciliation", err)
	}
	return nil
}
