// Package chunking splits content item text into fixed-size chunks
// for embedding and indexing.
package chunking

import (
	"github.com/google/uuid"

	"github.com/siftlabs/sift/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits text into fixed-size overlapping chunks.
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

// New creates a new chunker with the given options.
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

// Split chunks the text of one content item. New chunks start in the
// pending state with no embedding; the embedding pipeline advances
// them from there.
func (c *Chunker) Split(contentItemID, text string) []domain.Chunk {
	if text == "" {
		// Empty content produces no chunks
		return nil
	}

	textLen := len(text)

	// Estimate number of chunks
	estimated := (textLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	index := 0
	start := 0

	for start < textLen {
		end := start + c.chunkSize
		if end > textLen {
			end = textLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:            uuid.New().String(),
			ContentItemID: contentItemID,
			Index:         index,
			Text:          text[start:end],
			Metadata:      make(map[string]any),
			State:         domain.ChunkStatePending,
		})
		index++

		// Move start forward by (chunkSize - overlap)
		start += c.chunkSize - c.overlap

		// Avoid infinite loop for edge cases
		if c.chunkSize <= c.overlap {
			break
		}
	}

	return chunks
}
