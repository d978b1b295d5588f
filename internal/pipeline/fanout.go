package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/semaj90/legal-rag-core/internal/embedding"
	"github.com/semaj90/legal-rag-core/internal/fusion"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
	"github.com/semaj90/legal-rag-core/internal/router"
)

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// searchCollections resolves which collections a request fans out
// across: an explicit req.Datasets list takes precedence; otherwise the
// routed primary collection, plus its jurisdiction's legacy collections
// (spec.md §9 open question 1) when req.IncludeLegacy is set — callers
// wanting the spec's "legacy included by default" behavior set it
// explicitly, since a plain bool can't distinguish unset from false
// (spec.md §8 invariant 7: include_legacy=false excludes legacy hits).
func searchCollections(req ragmodel.SearchRequest, route ragmodel.EmbeddingRoute) []string {
	if len(req.Datasets) > 0 {
		return dedupeStrings(req.Datasets)
	}
	collections := []string{route.Collection}
	if req.IncludeLegacy {
		collections = append(collections, router.LegacyCollections[route.Decision.Jurisdiction]...)
	}
	return dedupeStrings(collections)
}

// fanOut runs the FAN_OUT stage: for each query variant, a lexical
// search across every resolved collection plus one dense vector search
// against the routed primary collection (embedded via the routed
// provider). Legacy collections are lexical-only in this
// implementation, since they were embedded by whatever provider
// originally ingested them rather than the jurisdiction's current
// provider, so a fresh dense query vector cannot be compared against
// their stored vectors without a migration (see internal/vector.Migrate).
// A single backend failing degrades the request rather than failing it
// outright (spec.md §7 BackendUnavailable).
func (o *Orchestrator) fanOut(
	ctx context.Context,
	req ragmodel.SearchRequest,
	route ragmodel.EmbeddingRoute,
	queryVariants []string,
	vectorQueryText string,
	chunkByID map[string]*ragmodel.Chunk,
	collectionsSearched map[string]bool,
) ([]fusion.List, bool, error) {
	collections := searchCollections(req, route)
	for _, c := range collections {
		collectionsSearched[c] = true
	}
	scopeFilter := scopeFilterFor(req)
	vecFilter := vectorFilterFor(req)

	var (
		lists    []fusion.List
		degraded bool
	)

	g, gctx := errgroup.WithContext(ctx)
	listsCh := make(chan fusion.List, len(queryVariants)*(len(collections)+1))
	degradedCh := make(chan bool, len(queryVariants)*(len(collections)+1))

	// lexicalSourceCollection is set only when a single index was
	// queried; bleve's SearchLexical merges hits across indices without
	// tagging which one each came from, so a multi-collection lexical
	// fan-out leaves Chunk.SourceCollection blank rather than guessing.
	lexicalSourceCollection := ""
	if len(collections) == 1 {
		lexicalSourceCollection = collections[0]
	}

	if o.Lexical != nil {
		for _, variant := range queryVariants {
			g.Go(func() error {
				hits, err := o.Lexical.SearchLexical(gctx, collections, variant, scopeFilter, 50)
				if err != nil {
					degradedCh <- true
					return nil
				}
				ids := make([]string, 0, len(hits))
				for _, h := range hits {
					ids = append(ids, h.ChunkID)
					chunkByID[h.ChunkID] = &ragmodel.Chunk{ID: h.ChunkID, Text: h.Text, Metadata: h.Metadata, SourceCollection: lexicalSourceCollection}
				}
				listsCh <- fusion.List{IDs: ids, Weight: o.lexicalWeight()}
				return nil
			})
		}
	} else {
		degradedCh <- true
	}

	if o.Vector != nil {
		for i, variant := range queryVariants {
			text := variant
			if i == 0 {
				text = vectorQueryText
			}
			g.Go(func() error {
				provider := o.EmbeddingProviders[route.Provider]
				if provider == nil {
					degradedCh <- true
					return nil
				}
				vecs, err := provider.EmbedBatch(gctx, []string{text}, embedding.InputQuery)
				if err != nil || len(vecs) == 0 {
					degradedCh <- true
					return nil
				}
				floatVec := make([]float32, len(vecs[0]))
				copy(floatVec, vecs[0])
				hits, err := o.Vector.Search(gctx, route.Collection, floatVec, vecFilter, 50)
				if err != nil {
					degradedCh <- true
					return nil
				}
				ids := make([]string, 0, len(hits))
				for _, h := range hits {
					ids = append(ids, h.ChunkID)
					chunkByID[h.ChunkID] = &ragmodel.Chunk{ID: h.ChunkID, Text: h.Text, Metadata: h.Metadata, SourceCollection: route.Collection}
				}
				listsCh <- fusion.List{IDs: ids, Weight: o.vectorWeight()}
				return nil
			})
		}
	} else {
		degradedCh <- true
	}

	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	close(listsCh)
	close(degradedCh)

	for l := range listsCh {
		lists = append(lists, l)
	}
	for d := range degradedCh {
		if d {
			degraded = true
		}
	}

	return lists, degraded, nil
}

func (o *Orchestrator) lexicalWeight() float64 {
	if o.Flags.LexicalWeight <= 0 {
		return 1.0
	}
	return o.Flags.LexicalWeight
}

func (o *Orchestrator) vectorWeight() float64 {
	if o.Flags.VectorWeight <= 0 {
		return 1.0
	}
	return o.Flags.VectorWeight
}
