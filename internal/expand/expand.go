// Package expand implements the Chunk Expander of spec.md §4.I:
// fetching prev/next neighbor chunks by (doc_id, position±k) for each
// item in a ranking, de-duplicated, capped at MaxExtra additional
// chunks, preserving each original item's rank slot. Each neighbor is a
// separate FetchNeighbor call, run concurrently; lookups are not
// combined into a single backend request.
package expand

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// NeighborFetcher looks up the chunk at (docID, position) across
// whichever backend(s) hold it. A miss (chunk does not exist) returns
// (nil, nil), not an error.
type NeighborFetcher interface {
	FetchNeighbor(ctx context.Context, docID string, position int) (*ragmodel.Chunk, error)
}

// Expander fetches and merges neighbor chunks around each ranked item.
type Expander struct {
	fetcher  NeighborFetcher
	window   int
	maxExtra int
}

// New builds an Expander. window <= 0 defaults to 1 (one neighbor each
// side); maxExtra <= 0 defaults to 12 (spec.md §4.I default cap).
func New(fetcher NeighborFetcher, window, maxExtra int) *Expander {
	if window <= 0 {
		window = 1
	}
	if maxExtra <= 0 {
		maxExtra = 12
	}
	return &Expander{fetcher: fetcher, window: window, maxExtra: maxExtra}
}

type neighborKey struct {
	docID    string
	position int
}

// Expand fetches up to e.window neighbors on each side of every item in
// ranking (by doc_id/position, read off item.Chunk), de-duplicates the
// wanted positions (including against positions already present in
// ranking), fetches each one with its own concurrent FetchNeighbor
// call, and merges results in after
// the item whose neighborhood they belong to while preserving the
// original items' relative order. The total number of appended chunks
// never exceeds e.maxExtra.
func (e *Expander) Expand(ctx context.Context, ranking ragmodel.RankedList) (ragmodel.RankedList, error) {
	if e.fetcher == nil || len(ranking) == 0 {
		return ranking, nil
	}

	present := make(map[neighborKey]bool, len(ranking))
	for _, item := range ranking {
		if item.Chunk != nil {
			present[neighborKey{item.Chunk.DocID, item.Chunk.Position}] = true
		}
	}

	type want struct {
		key        neighborKey
		afterIndex int // index in ranking after which this neighbor should be inserted
	}
	var wants []want
	seen := map[neighborKey]bool{}
	for i, item := range ranking {
		if item.Chunk == nil {
			continue
		}
		for delta := -e.window; delta <= e.window; delta++ {
			if delta == 0 {
				continue
			}
			key := neighborKey{item.Chunk.DocID, item.Chunk.Position + delta}
			if present[key] || seen[key] {
				continue
			}
			seen[key] = true
			wants = append(wants, want{key: key, afterIndex: i})
			if len(wants) >= e.maxExtra {
				break
			}
		}
		if len(wants) >= e.maxExtra {
			break
		}
	}

	fetched := make([]*ragmodel.Chunk, len(wants))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range wants {
		i, w := i, w
		g.Go(func() error {
			chunk, err := e.fetcher.FetchNeighbor(gctx, w.key.docID, w.key.position)
			if err != nil {
				return err
			}
			fetched[i] = chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	insertions := make(map[int][]ragmodel.RankedItem)
	for i, w := range wants {
		if fetched[i] == nil {
			continue
		}
		insertions[w.afterIndex] = append(insertions[w.afterIndex], ragmodel.RankedItem{
			ChunkID: fetched[i].ID,
			Score:   ranking[w.afterIndex].Score,
			Chunk:   fetched[i],
		})
	}

	out := make(ragmodel.RankedList, 0, len(ranking)+len(wants))
	for i, item := range ranking {
		out = append(out, item)
		if extras, ok := insertions[i]; ok {
			sort.SliceStable(extras, func(a, b int) bool {
				return extras[a].Chunk.Position < extras[b].Chunk.Position
			})
			out = append(out, extras...)
		}
	}
	return out, nil
}
