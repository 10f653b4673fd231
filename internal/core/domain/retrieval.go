package domain

import "fmt"

// Chunk metadata keys written at index time and returned verbatim by queries.
const (
	MetaEmailID    = "email_id"
	MetaChunkIndex = "chunk_index"
	MetaCategory   = "category"
	MetaSender     = "sender"
	MetaSubject    = "subject"
)

// Chunk is an indexed slice of an email body.
// Chunks are owned by their email: replaced wholesale on re-index and
// removed with it.
type Chunk struct {
	// EmailID is the owning email.
	EmailID int64

	// Index is the ordinal position within the email.
	Index int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Metadata is attached at write time and is the only filter surface.
	Metadata map[string]any
}

// ChunkID returns the deterministic identity of a chunk.
func ChunkID(emailID int64, index int) string {
	return fmt.Sprintf("%d_chunk_%d", emailID, index)
}

// ID returns the chunk identity.
func (c Chunk) ID() string {
	return ChunkID(c.EmailID, c.Index)
}

// RetrievedItem is a similarity query hit.
type RetrievedItem struct {
	// Text is the chunk content.
	Text string

	// Distance is the cosine distance to the query (0 identical, 2 opposite).
	Distance float64

	// Metadata is the chunk metadata as written.
	Metadata map[string]any

	// EmailID is the owning email, nil when the metadata carries none.
	EmailID *int64
}

// EmailIDFromMetadata reads the owning email id out of chunk metadata.
// Stores round-trip numbers differently (int64, float64, json.Number), so
// every numeric form is accepted.
func EmailIDFromMetadata(meta map[string]any) *int64 {
	raw, ok := meta[MetaEmailID]
	if !ok || raw == nil {
		return nil
	}
	var id int64
	switch v := raw.(type) {
	case int64:
		id = v
	case int:
		id = int64(v)
	case int32:
		id = int64(v)
	case float64:
		id = int64(v)
	case float32:
		id = int64(v)
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		id = n
	default:
		return nil
	}
	return &id
}

// ChatRole is the author of a chat message.
type ChatRole string

// Chat roles understood by completion services.
const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// SourcePreview is a short excerpt of one source email.
type SourcePreview struct {
	EmailID int64
	Preview string
}

// Answer is a grounded reply.
// Every id in SourceIDs appears in exactly one entry of Sources; ids are
// unique and ascending.
type Answer struct {
	Text      string
	SourceIDs []int64
	Sources   []SourcePreview
}

// EnrichedSource describes a source email for display.
type EnrichedSource struct {
	EmailID int64
	Sender  string
	Subject string
	Summary string
	Preview string
}
