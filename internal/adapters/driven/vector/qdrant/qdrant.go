// Package qdrant provides a vector index backed by a Qdrant collection.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Default configuration values.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 6334
	DefaultCollection = "documents"
	DefaultDimensions = 768

	// purgePageSize bounds how many points one scroll-and-delete
	// round touches.
	purgePageSize = 100
)

// Payload keys stored with every point.
const (
	payloadDocumentID  = "documentId"
	payloadWorkspaceID = "workspaceId"
	payloadChunkIndex  = "chunkIndex"
	payloadText        = "text"
)

// Config holds configuration for the Qdrant vector index.
type Config struct {
	// Host is the Qdrant gRPC host (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey authenticates the connection, if set.
	APIKey string

	// Collection is the collection name (default: documents).
	Collection string

	// Dimensions is the vector size used when the collection has to be
	// created (default: 768).
	Dimensions int
}

// VectorIndex stores and searches passage embeddings in Qdrant.
type VectorIndex struct {
	client     *qdrant.Client
	collection string
}

// NewVectorIndex connects to Qdrant and ensures the collection exists
// with a cosine-distance vector config.
func NewVectorIndex(ctx context.Context, cfg Config) (*VectorIndex, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	idx := &VectorIndex{
		client:     client,
		collection: cfg.Collection,
	}
	if err := idx.ensureCollection(ctx, cfg.Dimensions); err != nil {
		client.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *VectorIndex) ensureCollection(ctx context.Context, dimensions int) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	if err := idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimensions),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	logger.Info("created qdrant collection %q (%d dimensions)", idx.collection, dimensions)
	return nil
}

// Upsert inserts or replaces points by id.
func (idx *VectorIndex) Upsert(ctx context.Context, points []driven.Point) error {
	if len(points) == 0 {
		return nil
	}

	pts := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadDocumentID:  p.DocumentID,
				payloadWorkspaceID: p.WorkspaceID,
				payloadChunkIndex:  p.ChunkIndex,
				payloadText:        p.Text,
			}),
		}
	}

	if _, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         pts,
	}); err != nil {
		return fmt.Errorf("%w: upsert points: %v", domain.ErrUpstream, err)
	}
	return nil
}

// Search returns the top-limit passages for the query vector, filtered
// to the given workspace.
func (idx *VectorIndex) Search(ctx context.Context, vector []float32, workspaceID string, limit int) ([]domain.SearchHit, error) {
	lim := uint64(limit)
	resp, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Limit:          &lim,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadWorkspaceID, workspaceID),
			},
		},
		Query:       qdrant.NewQuery(vector...),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", domain.ErrUpstream, err)
	}

	hits := make([]domain.SearchHit, 0, len(resp))
	for _, r := range resp {
		hit := domain.SearchHit{Score: float64(r.Score)}
		for key, v := range r.Payload {
			switch key {
			case payloadText:
				hit.Text, _ = convertValue(v).(string)
			case payloadDocumentID:
				hit.DocumentID, _ = convertValue(v).(string)
			case payloadChunkIndex:
				if n, ok := convertValue(v).(int64); ok {
					hit.ChunkIndex = int(n)
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteByDocument removes every point belonging to the document,
// scrolling matches a page at a time and deleting by id. Failures stop
// the purge and are reported in the result rather than raised.
func (idx *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) driven.PurgeResult {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(payloadDocumentID, documentID),
		},
	}
	pageSize := uint32(purgePageSize)

	deleted := 0
	for {
		page, err := idx.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: idx.collection,
			Filter:         filter,
			Limit:          &pageSize,
			WithPayload:    qdrant.NewWithPayload(false),
		})
		if err != nil {
			return driven.PurgeResult{Deleted: deleted, Err: fmt.Errorf("scroll points: %w", err)}
		}
		if len(page) == 0 {
			return driven.PurgeResult{Deleted: deleted}
		}

		ids := make([]*qdrant.PointId, len(page))
		for i, p := range page {
			ids[i] = p.Id
		}
		if _, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: idx.collection,
			Points:         qdrant.NewPointsSelector(ids...),
			Wait:           qdrant.PtrOf(true),
		}); err != nil {
			return driven.PurgeResult{Deleted: deleted, Err: fmt.Errorf("delete points: %w", err)}
		}
		deleted += len(page)
	}
}

// Close releases the client connection.
func (idx *VectorIndex) Close() error {
	return idx.client.Close()
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	}
	return nil
}
