package vector

import (
	"context"

	"go.uber.org/zap"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

func chunkFromHit(h Hit) ragmodel.Chunk {
	return ragmodel.Chunk{ID: h.ChunkID, Text: h.Text, Metadata: h.Metadata}
}

// MigrateCollection moves every point in a legacy collection to a
// primary-store collection, re-embedding each point's text with the
// caller-supplied reembed function so the stored vectors have the
// destination's dimensionality, since a legacy collection's embedding
// space (e.g. JurisBERT 768-dim) is rarely compatible with the
// destination's. Points whose re-embed fails are logged and skipped
// (spec.md §9 Open Question:
// migrate_collection is independent of, and does not gate, the
// search-time include_legacy merge).
func MigrateCollection(ctx context.Context, from, to Adapter, fromCollection, toCollection string, toDims int, batchSize int, logger *zap.Logger, reembed func(ctx context.Context, text string) ([]float32, error)) (int, error) {
	if err := to.EnsureCollection(ctx, toCollection, toDims); err != nil {
		return 0, err
	}

	cursor := ""
	migrated := 0
	for {
		page, err := from.Scroll(ctx, fromCollection, Filter{}, batchSize, cursor)
		if err != nil {
			return migrated, err
		}
		for _, hit := range page.Hits {
			vec, err := reembed(ctx, hit.Text)
			if err != nil {
				if logger != nil {
					logger.Warn("migrate_collection: re-embed failed, skipping point",
						zap.String("chunk_id", hit.ChunkID), zap.Error(err))
				}
				continue
			}
			if err := to.Upsert(ctx, toCollection, hit.ChunkID, vec, chunkFromHit(hit)); err != nil {
				return migrated, err
			}
			migrated++
		}
		if page.Done || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return migrated, nil
}
