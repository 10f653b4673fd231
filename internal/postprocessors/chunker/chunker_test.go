package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		assert.Equal(t, DefaultChunkSize, c.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, c.overlap)
		assert.Equal(t, 800, c.Stride())
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		assert.Less(t, c.overlap, c.chunkSize)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, c.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, c.overlap)
	})
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split(""))
}

func TestSplit_ShortText(t *testing.T) {
	assert.Equal(t, []string{"short email"}, Split("short email"))
}

func TestSplit_Counts(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{length: 1, want: 1},
		{length: 800, want: 1},
		{length: 801, want: 2},
		{length: 1000, want: 2},
		{length: 1600, want: 2},
		{length: 2000, want: 3},
		{length: 2500, want: 4},
	}

	for _, tt := range tests {
		chunks := Split(strings.Repeat("x", tt.length))
		assert.Len(t, chunks, tt.want, "length %d", tt.length)
	}
}

func TestSplit_WindowsAndOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2500; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()

	chunks := Split(text)
	require.Len(t, chunks, 4)

	assert.Equal(t, text[0:1000], chunks[0])
	assert.Equal(t, text[800:1800], chunks[1])
	assert.Equal(t, text[1600:2500], chunks[2])
	assert.Equal(t, text[2400:2500], chunks[3])

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if len(prev) < DefaultChunkSize {
			break
		}
		assert.Equal(t, prev[len(prev)-DefaultChunkOverlap:], chunks[i][:DefaultChunkOverlap])
	}
}

func TestSplit_CustomWindow(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(3))

	chunks := c.Split("0123456789ABCDEFGHIJ")

	assert.Equal(t, []string{"0123456789", "789ABCDEFG", "EFGHIJ"}, chunks)
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("메", 1200)

	chunks := Split(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 400, utf8.RuneCountInString(chunks[1]))
	assert.True(t, utf8.ValidString(chunks[1]))
}
