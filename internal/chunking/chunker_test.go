package chunking

import (
	"strings"
	"testing"

	"github.com/siftlabs/sift/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		c := New(WithChunkSize(500))
		if c.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", c.chunkSize)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestChunker_Split_EmptyText(t *testing.T) {
	c := New()
	chunks := c.Split("item-1", "")
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestChunker_Split_SmallText(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	chunks := c.Split("item-1", "a short transcript passage")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a short transcript passage" {
		t.Errorf("chunk text mismatch: %q", chunks[0].Text)
	}
	if chunks[0].ContentItemID != "item-1" {
		t.Errorf("expected content item ID 'item-1', got %q", chunks[0].ContentItemID)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].State != domain.ChunkStatePending {
		t.Errorf("expected pending state, got %q", chunks[0].State)
	}
	if chunks[0].ID == "" {
		t.Error("chunk ID should be generated")
	}
}

func TestChunker_Split_LargeText(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	text := strings.Repeat("abcdefghij", 50) // 500 chars
	chunks := c.Split("item-1", text)

	if len(chunks) < 5 {
		t.Fatalf("expected at least 5 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if len(chunk.Text) > 100 {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(chunk.Text))
		}
	}

	// Consecutive chunks overlap by 20 characters.
	first := chunks[0].Text
	second := chunks[1].Text
	if !strings.HasPrefix(second, first[len(first)-20:]) {
		t.Error("expected 20-character overlap between consecutive chunks")
	}
}

func TestChunker_Split_UniqueIDs(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	chunks := c.Split("item-1", strings.Repeat("x", 200))

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if seen[chunk.ID] {
			t.Fatalf("duplicate chunk ID %q", chunk.ID)
		}
		seen[chunk.ID] = true
	}
}
