package adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Match is a single vector search hit, ordered by descending score
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorStore is the nearest-neighbor index collaborator. Upserted
// payloads come back verbatim in search results.
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, vector []float32, topK int) ([]*Match, error)
	Delete(ctx context.Context, id string) error
}

// QdrantClient implements VectorStore over Qdrant's gRPC API
type QdrantClient struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
}

// NewQdrant dials the Qdrant endpoint and ensures the memory collection
// exists with the system-wide embedding dimensionality.
func NewQdrant(ctx context.Context, host string, port int, collection string, dimension uint64) (*QdrantClient, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to qdrant", goerr.V("addr", addr))
	}

	c := &QdrantClient{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		collection:  collection,
	}

	if err := c.ensureCollection(ctx, dimension); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *QdrantClient) ensureCollection(ctx context.Context, dimension uint64) error {
	if _, err := c.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: c.collection}); err == nil {
		return nil
	}

	_, err := c.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create collection", goerr.V("collection", c.collection))
	}
	return nil
}

// idPayloadKey carries the caller's id inside the point payload.
// Qdrant accepts only UUID or integer point ids, so the caller id is
// mapped to a deterministic UUID and restored from the payload on read.
const idPayloadKey = "_id"

func pointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (c *QdrantClient) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload[idPayloadKey] = id

	_, err := c.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: c.collection,
		Points: []*pb.PointStruct{
			{
				Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(id)}},
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
				Payload: toPayload(payload),
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upsert point", goerr.V("id", id))
	}
	return nil
}

func (c *QdrantClient) Search(ctx context.Context, vector []float32, topK int) ([]*Match, error) {
	resp, err := c.points.Search(ctx, &pb.SearchPoints{
		CollectionName: c.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search points", goerr.V("collection", c.collection))
	}

	matches := make([]*Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		metadata := fromPayload(r.Payload)
		id := r.Id.GetUuid()
		if stored, ok := metadata[idPayloadKey].(string); ok && stored != "" {
			id = stored
			delete(metadata, idPayloadKey)
		}
		matches = append(matches, &Match{
			ID:       id,
			Score:    float64(r.Score),
			Metadata: metadata,
		})
	}
	return matches, nil
}

func (c *QdrantClient) Delete(ctx context.Context, id string) error {
	_, err := c.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: c.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(id)}}},
				},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete point", goerr.V("id", id))
	}
	return nil
}

// Close tears down the underlying gRPC connection
func (c *QdrantClient) Close() error {
	return c.conn.Close()
}

func toPayload(metadata map[string]any) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
		case float64:
			payload[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
		case int:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
		case bool:
			payload[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
		default:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
		}
	}
	return payload
}

func fromPayload(payload map[string]*pb.Value) map[string]any {
	metadata := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.Kind.(type) {
		case *pb.Value_StringValue:
			metadata[k] = kind.StringValue
		case *pb.Value_DoubleValue:
			metadata[k] = kind.DoubleValue
		case *pb.Value_IntegerValue:
			metadata[k] = kind.IntegerValue
		case *pb.Value_BoolValue:
			metadata[k] = kind.BoolValue
		}
	}
	return metadata
}
