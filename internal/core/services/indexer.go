package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/logger"
	"github.com/custodia-labs/mailrag/internal/postprocessors/chunker"
)

// IndexService keeps an email's chunks in the vector index in step with
// the email. Operations on one email id are serialised; different ids
// proceed in parallel.
type IndexService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	chunker  *chunker.Chunker
	locks    *keyedMutex
}

// NewIndexService creates an index service using the default chunker.
func NewIndexService(embedder driven.EmbeddingService, index driven.VectorIndex) *IndexService {
	return &IndexService{
		embedder: embedder,
		index:    index,
		chunker:  chunker.New(),
		locks:    newKeyedMutex(),
	}
}

// Index replaces every chunk of the email with freshly embedded chunks of
// its body. Errors wrap domain.ErrIndexUnavailable.
func (s *IndexService) Index(ctx context.Context, email *domain.Email) error {
	if s.index == nil {
		return fmt.Errorf("%w: no vector index configured", domain.ErrIndexUnavailable)
	}
	if s.embedder == nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, domain.ErrEmbeddingUnavailable)
	}

	texts := s.chunker.Split(email.Body)
	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embed chunks of email %d: %w", domain.ErrIndexUnavailable, email.ID, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrIndexUnavailable, len(vectors), len(texts))
		}
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			EmailID:   email.ID,
			Index:     i,
			Text:      text,
			Embedding: vectors[i],
			Metadata:  chunkMetadata(email, i),
		}
	}

	unlock := s.locks.lock(email.ID)
	defer unlock()

	if err := s.index.Delete(ctx, emailFilter(email.ID)); err != nil {
		return fmt.Errorf("%w: clear chunks of email %d: %w", domain.ErrIndexUnavailable, email.ID, err)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("%w: upsert chunks of email %d: %w", domain.ErrIndexUnavailable, email.ID, err)
	}
	logger.Debug("indexed email %d as %d chunks", email.ID, len(chunks))
	return nil
}

// Remove deletes every chunk of the email. Errors wrap domain.ErrIndexUnavailable.
func (s *IndexService) Remove(ctx context.Context, emailID int64) error {
	if s.index == nil {
		return fmt.Errorf("%w: no vector index configured", domain.ErrIndexUnavailable)
	}

	unlock := s.locks.lock(emailID)
	defer unlock()

	if err := s.index.Delete(ctx, emailFilter(emailID)); err != nil {
		return fmt.Errorf("%w: delete chunks of email %d: %w", domain.ErrIndexUnavailable, emailID, err)
	}
	return nil
}

func emailFilter(id int64) map[string]any {
	return map[string]any{domain.MetaEmailID: id}
}

func chunkMetadata(email *domain.Email, index int) map[string]any {
	return map[string]any{
		domain.MetaEmailID:    email.ID,
		domain.MetaChunkIndex: index,
		domain.MetaCategory:   email.Category,
		domain.MetaSender:     email.Sender,
		domain.MetaSubject:    email.Subject,
	}
}

// keyedMutex hands out one mutex per key and frees it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

func (k *keyedMutex) lock(key int64) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
