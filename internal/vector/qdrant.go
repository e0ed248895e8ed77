package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/tablerank/tablerank/internal/search"
)

const (
	payloadReviewID     = "review_id"
	payloadRestaurantID = "restaurant_id"

	scrollPageSize = 1000
)

// pointIDNamespace makes qdrant point IDs a deterministic function of
// the review ID, so re-upserting a review overwrites its old point.
var pointIDNamespace = uuid.MustParse("1f2a9c66-83b4-4a5e-9a40-5c3f14f1c0de")

// QdrantIndex is the Qdrant-backed implementation of Index. One
// collection holds one point per embedded review, keyed by a UUID
// derived from the review ID, with the review and restaurant IDs kept
// in the payload.
type QdrantIndex struct {
	points      qdrantclient.PointsClient
	collections qdrantclient.CollectionsClient
	collection  string
	dimension   uint64
}

// NewQdrantIndex creates an index over an established gRPC connection.
func NewQdrantIndex(conn grpc.ClientConnInterface, collection string, dimension uint64) *QdrantIndex {
	return &QdrantIndex{
		points:      qdrantclient.NewPointsClient(conn),
		collections: qdrantclient.NewCollectionsClient(conn),
		collection:  collection,
		dimension:   dimension,
	}
}

// EnsureCollection creates the collection if it does not exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	collections, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range collections.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     q.dimension,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	return nil
}

// HealthCheck verifies the qdrant endpoint is reachable. Satisfies the
// API server's readiness checker interface.
func (q *QdrantIndex) HealthCheck(ctx context.Context) error {
	if _, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Drop deletes and recreates the collection.
func (q *QdrantIndex) Drop(ctx context.Context) error {
	_, err := q.collections.Delete(ctx, &qdrantclient.DeleteCollection{
		CollectionName: q.collection,
	})
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", q.collection, err)
	}
	return q.EnsureCollection(ctx)
}

// ListIDs scrolls the whole collection and returns the review IDs it
// holds. Full-set reads scale with index size; acceptable at current
// corpus sizes.
func (q *QdrantIndex) ListIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	limit := uint32(scrollPageSize)
	var offset *qdrantclient.PointId

	for {
		resp, err := q.points.Scroll(ctx, &qdrantclient.ScrollPoints{
			CollectionName: q.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload: &qdrantclient.WithPayloadSelector{
				SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
					Include: &qdrantclient.PayloadIncludeSelector{
						Fields: []string{payloadReviewID},
					},
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("scroll collection %s: %w", q.collection, err)
		}
		for _, p := range resp.GetResult() {
			if v, ok := p.GetPayload()[payloadReviewID]; ok {
				ids[v.GetStringValue()] = true
			}
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}
	return ids, nil
}

// Upsert writes the given points, overwriting existing ones.
func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qpoints := make([]*qdrantclient.PointStruct, 0, len(points))
	for _, p := range points {
		qpoints = append(qpoints, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{
					Uuid: uuid.NewSHA1(pointIDNamespace, []byte(p.ReviewID)).String(),
				},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: p.Vector},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				payloadReviewID:     {Kind: &qdrantclient.Value_StringValue{StringValue: p.ReviewID}},
				payloadRestaurantID: {Kind: &qdrantclient.Value_StringValue{StringValue: p.RestaurantID}},
			},
		})
	}

	_, err := q.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: q.collection,
		Points:         qpoints,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Query searches the collection, discarding anything below MinSimilarity.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, allowed map[string]bool, limit int) ([]search.SemanticHit, error) {
	threshold := float32(MinSimilarity)
	req := &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &threshold,
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{payloadReviewID, payloadRestaurantID},
				},
			},
		},
	}
	if allowed != nil {
		restaurantIDs := make([]string, 0, len(allowed))
		for id := range allowed {
			restaurantIDs = append(restaurantIDs, id)
		}
		req.Filter = &qdrantclient.Filter{
			Must: []*qdrantclient.Condition{{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: payloadRestaurantID,
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Keywords{
								Keywords: &qdrantclient.RepeatedStrings{Strings: restaurantIDs},
							},
						},
					},
				},
			}},
		}
	}

	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", q.collection, err)
	}

	hits := make([]search.SemanticHit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		payload := p.GetPayload()
		hits = append(hits, search.SemanticHit{
			ReviewID:     payload[payloadReviewID].GetStringValue(),
			RestaurantID: payload[payloadRestaurantID].GetStringValue(),
			Similarity:   float64(p.GetScore()),
		})
	}
	return hits, nil
}
