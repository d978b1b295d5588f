// Package lexical implements the Lexical Backend Adapter (spec.md
// §4.B) on top of blevesearch/bleve/v2, grounded on
// Aman-CERP-amanmcp's internal/store/bm25.go BM25 wrapper.
package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/semaj90/legal-rag-core/internal/ragerr"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// Hit is one lexical search result (spec.md §4.B).
type Hit struct {
	ChunkID  string
	Score    float64
	Text     string
	Metadata ragmodel.ChunkMetadata
}

// indexedDoc is the flattened shape persisted in each bleve index:
// Text is analyzed for BM25, Meta carries the opaque metadata blob
// consulted only after a hit for scope/sigilo filtering.
type indexedDoc struct {
	Text string `json:"text"`
	Meta string `json:"meta"`
}

// Adapter owns one bleve.Index per logical index name (spec.md calls
// these "indices"), each backed by an in-memory store — index
// persistence to disk is left to deployment configuration via
// Options.Dir.
type Adapter struct {
	mu      sync.RWMutex
	indices map[string]bleve.Index
	dir     string
	logger  *zap.Logger
}

// Options configures the adapter. Dir, when set, persists each index
// under <Dir>/<name>; empty uses in-memory indices (tests, dev).
type Options struct {
	Dir    string
	Logger *zap.Logger
}

func NewAdapter(opts Options) *Adapter {
	return &Adapter{
		indices: make(map[string]bleve.Index),
		dir:     opts.Dir,
		logger:  opts.Logger,
	}
}

// EnsureIndex is idempotent: repeated calls with the same name are a
// no-op once the index exists.
func (a *Adapter) EnsureIndex(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.indices[name]; ok {
		return nil
	}

	mapping := bleve.NewIndexMapping()
	var idx bleve.Index
	var err error
	if a.dir == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		path := a.dir + "/" + name
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("lexical: ensure_index %s", name), err)
	}
	a.indices[name] = idx
	return nil
}

func (a *Adapter) index(name string) (bleve.Index, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	idx, ok := a.indices[name]
	if !ok {
		return nil, ragerr.New(ragerr.InvalidInput, fmt.Sprintf("lexical: index %s not initialized, call EnsureIndex first", name))
	}
	return idx, nil
}

// IndexChunk upserts a single chunk's text+metadata into index.
func (a *Adapter) IndexChunk(ctx context.Context, index, id string, chunk ragmodel.Chunk) error {
	idx, err := a.index(index)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return ragerr.Wrap(ragerr.InvalidInput, fmt.Sprintf("lexical: marshal metadata for %s", id), err)
	}
	doc := indexedDoc{Text: chunk.Text, Meta: string(metaJSON)}
	if err := idx.Index(id, doc); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("lexical: index_chunk %s/%s", index, id), err)
	}
	return nil
}

// SearchLexical runs a BM25 match query across indices, applying the
// scope-filter predicate of spec.md §4.B post-hoc: a tenant-less filter
// returns zero results for private/group/local-scoped chunks, and a
// user-less filter restricts to sigilo=public.
func (a *Adapter) SearchLexical(ctx context.Context, indices []string, query string, filter ScopeFilter, size int) ([]Hit, error) {
	if size <= 0 {
		size = 20
	}
	// Over-fetch since scope filtering happens after the bleve query.
	overfetch := size * 4
	if overfetch < 50 {
		overfetch = 50
	}

	var all []Hit
	for _, name := range indices {
		idx, err := a.index(name)
		if err != nil {
			return nil, err
		}

		q := bleve.NewMatchQuery(query)
		q.SetField("text")
		req := bleve.NewSearchRequest(q)
		req.Size = overfetch
		req.Fields = []string{"text", "meta"}

		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("lexical: search_lexical index=%s", name), err)
		}

		for _, hit := range res.Hits {
			var meta ragmodel.ChunkMetadata
			if metaRaw, ok := hit.Fields["meta"].(string); ok {
				_ = json.Unmarshal([]byte(metaRaw), &meta)
			}
			if !Allows(meta, filter) {
				continue
			}
			text, _ := hit.Fields["text"].(string)
			all = append(all, Hit{
				ChunkID:  hit.ID,
				Score:    hit.Score,
				Text:     text,
				Metadata: meta,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].ChunkID < all[j].ChunkID
	})
	if len(all) > size {
		all = all[:size]
	}
	return all, nil
}

// DeleteWhere removes every document in index whose id is in ids. The
// adapter's predicate language is id-set based: callers (the Corpus
// Manager) resolve predicates to id sets via Scroll/metadata lookups
// before calling this.
func (a *Adapter) DeleteWhere(ctx context.Context, index string, ids []string) error {
	idx, err := a.index(index)
	if err != nil {
		return err
	}
	batch := idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := idx.Batch(batch); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("lexical: delete_where index=%s", index), err)
	}
	return nil
}

// Count returns the total document count of index (predicate-less,
// matching spec.md's count(index, predicate) when predicate is "all").
func (a *Adapter) Count(ctx context.Context, index string) (int, error) {
	idx, err := a.index(index)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("lexical: count index=%s", index), err)
	}
	return int(n), nil
}
