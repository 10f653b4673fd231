// Package chroma provides a vector index backed by a Chroma server collection.
// Embeddings are always supplied by the caller; the collection never embeds.
package chroma

import (
	"context"
	"fmt"
	"sort"

	chromago "github.com/amikos-tech/chroma-go"
	"github.com/amikos-tech/chroma-go/collection"
	"github.com/amikos-tech/chroma-go/types"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:8000"
	DefaultCollection = "emails"
)

// Config holds configuration for the Chroma index.
type Config struct {
	// URL is the Chroma server address (default: http://localhost:8000).
	URL string

	// Collection is the collection name (default: emails).
	Collection string
}

// store is the subset of *chromago.Collection the index uses.
type store interface {
	Upsert(ctx context.Context, embeddings []*types.Embedding, metadatas []map[string]interface{},
		documents []string, ids []string) (*chromago.Collection, error)
	QueryWithOptions(ctx context.Context, queryOptions ...types.CollectionQueryOption) (*chromago.QueryResults, error)
	Delete(ctx context.Context, ids []string, where map[string]interface{},
		whereDocuments map[string]interface{}) ([]string, error)
}

// Index stores chunks in one Chroma collection configured for cosine space.
type Index struct {
	coll store
	name string
}

// New connects to Chroma and creates the collection if it does not exist.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := chromago.NewClient(chromago.WithBasePath(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("chroma: create client: %w", err)
	}

	coll, err := client.NewCollection(
		ctx,
		cfg.Collection,
		collection.WithHNSWDistanceFunction(types.COSINE),
		collection.WithCreateIfNotExist(true),
	)
	if err != nil {
		return nil, fmt.Errorf("chroma: create or get collection %q: %w", cfg.Collection, err)
	}

	logger.Debug("chroma: using collection %q at %s", cfg.Collection, cfg.URL)
	return &Index{coll: coll, name: cfg.Collection}, nil
}

// Upsert writes chunks keyed by chunk ID.
func (x *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	docs := make([]string, len(chunks))
	metas := make([]map[string]interface{}, len(chunks))
	embeddings := make([]*types.Embedding, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chroma: chunk %s has no embedding", c.ID())
		}
		ids[i] = c.ID()
		docs[i] = c.Text
		metas[i] = c.Metadata
		embeddings[i] = types.NewEmbeddingFromFloat32(c.Embedding)
	}

	if _, err := x.coll.Upsert(ctx, embeddings, metas, docs, ids); err != nil {
		return fmt.Errorf("chroma: upsert %d chunks: %w", len(chunks), err)
	}
	return nil
}

// Query returns the k nearest chunks. Chroma reports cosine distance
// directly for collections in cosine space.
func (x *Index) Query(ctx context.Context, vector []float32, k int, filter map[string]any) ([]domain.RetrievedItem, error) {
	if k <= 0 {
		return nil, nil
	}

	opts := []types.CollectionQueryOption{
		types.WithQueryEmbedding(types.NewEmbeddingFromFloat32(vector)),
		types.WithNResults(int32(k)),
		types.WithInclude(types.IDocuments, types.IMetadatas, types.IDistances),
	}
	if where := Where(filter); where != nil {
		opts = append(opts, types.WithWhereMap(where))
	}

	results, err := x.coll.QueryWithOptions(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("chroma: query: %w", err)
	}
	return toItems(results), nil
}

// Delete removes every chunk matching the filter. An empty filter matches nothing.
func (x *Index) Delete(ctx context.Context, filter map[string]any) error {
	where := Where(filter)
	if where == nil {
		return nil
	}
	if _, err := x.coll.Delete(ctx, nil, where, nil); err != nil {
		return fmt.Errorf("chroma: delete: %w", err)
	}
	return nil
}

// Close releases resources.
func (x *Index) Close() error {
	// The underlying HTTP client doesn't need explicit cleanup
	return nil
}

// Where converts an equality filter into a Chroma where clause.
// Chroma only accepts a single key at the top level; several keys are
// combined with $and in key order.
func Where(filter map[string]any) map[string]interface{} {
	if len(filter) == 0 {
		return nil
	}
	if len(filter) == 1 {
		for k, v := range filter {
			return map[string]interface{}{k: v}
		}
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]map[string]interface{}, len(keys))
	for i, k := range keys {
		clauses[i] = map[string]interface{}{k: filter[k]}
	}
	return map[string]interface{}{"$and": clauses}
}

func toItems(results *chromago.QueryResults) []domain.RetrievedItem {
	if results == nil || len(results.Documents) == 0 {
		return nil
	}

	docs := results.Documents[0]
	items := make([]domain.RetrievedItem, 0, len(docs))
	for i, text := range docs {
		item := domain.RetrievedItem{Text: text}
		if len(results.Distances) > 0 && len(results.Distances[0]) > i {
			item.Distance = float64(results.Distances[0][i])
		}
		if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i && results.Metadatas[0][i] != nil {
			item.Metadata = results.Metadatas[0][i]
			item.EmailID = domain.EmailIDFromMetadata(item.Metadata)
		}
		items = append(items, item)
	}
	return items
}
