package driven

import (
	"context"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// VectorIndex stores chunks and answers cosine similarity queries.
// It never computes embeddings; chunks and queries arrive already embedded.
type VectorIndex interface {
	// Upsert inserts or replaces chunks, keyed by chunk ID.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Query returns at most k items ordered by ascending cosine distance.
	// A non-empty filter restricts results to chunks whose metadata equals
	// every filter entry.
	Query(ctx context.Context, vector []float32, k int, filter map[string]any) ([]domain.RetrievedItem, error)

	// Delete removes every chunk whose metadata matches the filter.
	Delete(ctx context.Context, filter map[string]any) error

	// Close releases resources.
	Close() error
}
