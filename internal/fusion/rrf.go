// Package fusion implements Reciprocal Rank Fusion (spec.md §4.G),
// grounded on the teacher's embedding_router.py `reciprocal_rank_fusion`
// and the neo4j-rag `_rrf_fusion` helper, generalized to accept
// per-list weights.
package fusion

import "github.com/semaj90/legal-rag-core/internal/ragmodel"

// DefaultK is the RRF smoothing constant from the literature, and the
// spec's configurable default.
const DefaultK = 60

// List is one ranked input to RRF: an ordered slice of chunk ids.
// Callers that already hold ragmodel.RankedList can call FromRanked to
// build one, or pass ids directly.
type List struct {
	IDs    []string
	Weight float64 // 0 means "use 1.0"
}

// FromRanked builds a fusion List from an existing RankedList, carrying
// its chunk ids in rank order.
func FromRanked(l ragmodel.RankedList, weight float64) List {
	return List{IDs: l.ChunkIDs(), Weight: weight}
}

// RRF fuses one or more ranked lists into a single RankedList using
// Reciprocal Rank Fusion: rrf(id) = Σ_L weight_L / (k + rank_L(id) + 1).
// Items absent from a list contribute 0 from that list. The result is
// sorted per ragmodel.RankedList's invariant (score desc, id asc on
// ties) — this function is pure and total (spec.md §8 invariant 1).
func RRF(lists []List, k int, chunkByID map[string]*ragmodel.Chunk) ragmodel.RankedList {
	if k <= 0 {
		k = DefaultK
	}

	scores := make(map[string]float64)
	for _, l := range lists {
		w := l.Weight
		if w == 0 {
			w = 1.0
		}
		for rank, id := range l.IDs {
			if id == "" {
				continue
			}
			scores[id] += w / float64(k+rank+1)
		}
	}

	out := make(ragmodel.RankedList, 0, len(scores))
	for id, score := range scores {
		item := ragmodel.RankedItem{ChunkID: id, Score: score}
		if chunkByID != nil {
			item.Chunk = chunkByID[id]
		}
		out = append(out, item)
	}
	out.Sort()
	return out
}

// Simple is a convenience wrapper over RRF for the common case of fusing
// plain ranked-id lists with equal weight and no chunk payload lookup.
func Simple(k int, rankedIDLists ...[]string) ragmodel.RankedList {
	lists := make([]List, len(rankedIDLists))
	for i, ids := range rankedIDLists {
		lists[i] = List{IDs: ids, Weight: 1.0}
	}
	return RRF(lists, k, nil)
}
