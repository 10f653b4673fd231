// Package chunker splits text into overlapping fixed-size windows.
package chunker

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits text into windows of chunkSize characters, each starting
// chunkSize-overlap characters after the previous one.
// Characters are runes, so multibyte text is never split mid code point.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Stride is the distance between consecutive window starts.
func (c *Chunker) Stride() int {
	return c.chunkSize - c.overlap
}

// Split returns the windows of text in order. Empty text yields nil.
//
// Windows start at 0, stride, 2*stride, ... for as long as the start lies
// inside the text, so the last window may be short and a text whose length
// is an exact multiple of the window still gets a trailing overlap window.
// Chunk IDs depend on this count.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	stride := c.Stride()

	chunks := make([]string, 0, n/stride+1)
	for start := 0; start < n; start += stride {
		end := start + c.chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}

var defaultChunker = New()

// Split splits text with the default 1000/200 window.
func Split(text string) []string {
	return defaultChunker.Split(text)
}
