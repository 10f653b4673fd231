// Package memory provides an in-process vector index using brute-force
// cosine distance. It is the default index and the one used in tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunk domain.Chunk
	norm  float64
	seq   int
}

// Index keeps chunks in a map keyed by chunk ID.
type Index struct {
	mu      sync.RWMutex
	entries map[string]entry
	seq     int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]entry)}
}

// Upsert inserts or replaces chunks by ID.
func (x *Index) Upsert(_ context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("memory index: chunk %s has no embedding", c.ID())
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, c := range chunks {
		id := c.ID()
		seq := x.seq
		if prev, ok := x.entries[id]; ok {
			seq = prev.seq
		} else {
			x.seq++
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		c.Metadata = copyMeta(c.Metadata)
		x.entries[id] = entry{chunk: c, norm: norm(c.Embedding), seq: seq}
	}
	return nil
}

// Query returns the k nearest chunks by cosine distance.
// Ties keep insertion order.
func (x *Index) Query(_ context.Context, vector []float32, k int, filter map[string]any) ([]domain.RetrievedItem, error) {
	if k <= 0 {
		return nil, nil
	}
	qnorm := norm(vector)

	type scored struct {
		e    entry
		dist float64
	}

	x.mu.RLock()
	hits := make([]scored, 0, len(x.entries))
	for _, e := range x.entries {
		if !Matches(e.chunk.Metadata, filter) {
			continue
		}
		hits = append(hits, scored{e: e, dist: cosineDistance(vector, qnorm, e.chunk.Embedding, e.norm)})
	}
	x.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].e.seq < hits[j].e.seq
		}
		return hits[i].dist < hits[j].dist
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	items := make([]domain.RetrievedItem, len(hits))
	for i, h := range hits {
		meta := copyMeta(h.e.chunk.Metadata)
		items[i] = domain.RetrievedItem{
			Text:     h.e.chunk.Text,
			Distance: h.dist,
			Metadata: meta,
			EmailID:  domain.EmailIDFromMetadata(meta),
		}
	}
	return items, nil
}

// Delete removes every chunk whose metadata matches the filter.
// An empty filter matches nothing.
func (x *Index) Delete(_ context.Context, filter map[string]any) error {
	if len(filter) == 0 {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, e := range x.entries {
		if Matches(e.chunk.Metadata, filter) {
			delete(x.entries, id)
		}
	}
	return nil
}

// Len returns the number of stored chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}

// Matches reports whether meta equals every entry of filter.
// Numbers compare by value regardless of their Go type.
func Matches(meta, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// cosineDistance is 1 - cosine similarity, in [0, 2].
// A zero vector is treated as orthogonal to everything.
func cosineDistance(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (an * bn)
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
