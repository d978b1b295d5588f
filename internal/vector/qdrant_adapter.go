package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/semaj90/legal-rag-core/internal/ragerr"
	"github.com/semaj90/legal-rag-core/internal/ragmodel"
)

// metaPayloadKey stores the JSON-encoded ChunkMetadata alongside the
// dense vector; originalIDKey recovers the caller-facing chunk id when
// it is not itself a UUID (Qdrant point IDs must be UUID or uint64).
const (
	metaPayloadKey   = "meta"
	textPayloadKey   = "text"
	originalIDKey    = "_original_id"
	namedDenseVector = "dense"
)

// QdrantAdapter is the primary vector store (spec.md §4.D default for
// every jurisdiction's non-legacy collection).
type QdrantAdapter struct {
	client *qdrant.Client
	dims   map[string]int
}

// NewQdrantAdapter dials Qdrant's gRPC API (default port 6334).
func NewQdrantAdapter(host string, port int, apiKey string, useTLS bool) (*QdrantAdapter, error) {
	cfg := &qdrant.Config{Host: host, Port: port, UseTLS: useTLS}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, "vector: create qdrant client", err)
	}
	return &QdrantAdapter{client: client, dims: make(map[string]int)}, nil
}

func pointIDFor(id string) *qdrant.PointId {
	if _, err := uuid.Parse(id); err == nil {
		return qdrant.NewIDUUID(id)
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

func (q *QdrantAdapter) EnsureCollection(ctx context.Context, collection string, dims int) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: check collection %s", collection), err)
	}
	if exists {
		q.dims[collection] = dims
		return nil
	}
	if dims <= 0 {
		return ragerr.New(ragerr.InvalidInput, fmt.Sprintf("vector: ensure_collection %s: dims must be > 0", collection))
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: create collection %s", collection), err)
	}
	q.dims[collection] = dims
	return nil
}

func (q *QdrantAdapter) checkDims(collection string, vec []float32) error {
	want, ok := q.dims[collection]
	if !ok {
		return nil
	}
	if len(vec) != want {
		return ragerr.New(ragerr.DimensionMismatch, fmt.Sprintf("vector: collection %s expects dims=%d, got %d", collection, want, len(vec)))
	}
	return nil
}

func (q *QdrantAdapter) Upsert(ctx context.Context, collection, id string, vec []float32, chunk ragmodel.Chunk) error {
	if err := q.checkDims(collection, vec); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return ragerr.Wrap(ragerr.InvalidInput, fmt.Sprintf("vector: marshal metadata for %s", id), err)
	}

	payload := map[string]any{
		metaPayloadKey: string(metaJSON),
		textPayloadKey: chunk.Text,
	}
	pointID := pointIDFor(id)
	if pointID.GetUuid() != id {
		payload[originalIDKey] = id
	}

	points := []*qdrant.PointStruct{{
		Id:      pointID,
		Vectors: qdrant.NewVectorsDense(vec),
		Payload: qdrant.NewValueMap(payload),
	}}
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: collection, Points: points}); err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: upsert %s/%s", collection, id), err)
	}
	return nil
}

func (q *QdrantAdapter) Search(ctx context.Context, collection string, vec []float32, filter Filter, topK int) ([]Hit, error) {
	if err := q.checkDims(collection, vec); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 20
	}
	limit := uint64(topK)

	res, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: search %s", collection), err)
	}

	hits := make([]Hit, 0, len(res))
	for _, point := range res {
		h := hitFromPayload(point.Id, point.Payload, float64(point.Score))
		if !Allows(h.Metadata, filter) {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// Scroll pages through a collection's points. cursor is the UUID of the
// previous page's last point, passed to Qdrant as the scroll offset;
// Qdrant starts a page at its offset point, so that point is returned
// again as the first point of the next page.
func (q *QdrantAdapter) Scroll(ctx context.Context, collection string, filter Filter, batchSize int, cursor string) (ScrollPage, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	limit := uint32(batchSize)
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if cursor != "" {
		req.Offset = pointIDFor(cursor)
	}

	points, err := q.client.Scroll(ctx, req)
	if err != nil {
		return ScrollPage{}, ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: scroll %s", collection), err)
	}

	page := ScrollPage{Done: len(points) < batchSize}
	for _, p := range points {
		h := hitFromPayload(p.Id, p.Payload, 0)
		if !Allows(h.Metadata, filter) {
			continue
		}
		page.Hits = append(page.Hits, h)
	}
	if len(points) > 0 {
		page.NextCursor = points[len(points)-1].Id.GetUuid()
	}
	return page, nil
}

func (q *QdrantAdapter) SetPayload(ctx context.Context, collection, id string, patch map[string]any) error {
	_, err := q.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: collection,
		Payload:        qdrant.NewValueMap(patch),
		PointsSelector: qdrant.NewPointsSelector(pointIDFor(id)),
	})
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: set_payload %s/%s", collection, id), err)
	}
	return nil
}

func (q *QdrantAdapter) DeleteWhere(ctx context.Context, collection string, ids []string) error {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointIDFor(id)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return ragerr.Wrap(ragerr.BackendUnavailable, fmt.Sprintf("vector: delete_where %s", collection), err)
	}
	return nil
}

func hitFromPayload(id *qdrant.PointId, payload map[string]*qdrant.Value, score float64) Hit {
	var meta ragmodel.ChunkMetadata
	var text, originalID string
	if payload != nil {
		if v, ok := payload[metaPayloadKey]; ok {
			_ = json.Unmarshal([]byte(v.GetStringValue()), &meta)
		}
		if v, ok := payload[textPayloadKey]; ok {
			text = v.GetStringValue()
		}
		if v, ok := payload[originalIDKey]; ok {
			originalID = v.GetStringValue()
		}
	}
	chunkID := originalID
	if chunkID == "" {
		chunkID = id.GetUuid()
	}
	return Hit{ChunkID: chunkID, Score: score, Metadata: meta, Text: text}
}
