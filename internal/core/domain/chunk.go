package domain

// ChunkState tracks a chunk through the ingestion pipeline.
type ChunkState string

// Chunk processing states.
const (
	// ChunkStatePending means the chunk exists but has no embedding yet.
	ChunkStatePending ChunkState = "pending"

	// ChunkStateProcessing means embedding generation is in flight.
	ChunkStateProcessing ChunkState = "processing"

	// ChunkStateProcessed means the chunk is fully indexed and retrievable.
	ChunkStateProcessed ChunkState = "processed"

	// ChunkStateFailed means embedding generation failed.
	ChunkStateFailed ChunkState = "failed"
)

// IsValid returns true if the state is recognised.
func (s ChunkState) IsValid() bool {
	switch s {
	case ChunkStatePending, ChunkStateProcessing, ChunkStateProcessed, ChunkStateFailed:
		return true
	default:
		return false
	}
}

// Retrievable returns true if chunks in this state may appear in
// search results. Only fully processed chunks are visible to retrieval.
func (s ChunkState) Retrievable() bool {
	return s == ChunkStateProcessed
}

// CanTransition returns true if the state machine permits moving to next.
// Transitions are owned by the ingestion pipeline; retrieval never
// triggers one.
func (s ChunkState) CanTransition(next ChunkState) bool {
	switch s {
	case ChunkStatePending:
		return next == ChunkStateProcessing || next == ChunkStateFailed
	case ChunkStateProcessing:
		return next == ChunkStateProcessed || next == ChunkStateFailed
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkState) String() string {
	return string(s)
}

// Chunk is the atomic unit of retrieval: a bounded passage of text
// derived from one content item.
//
// (ContentItemID, Index) is unique across the corpus. Chunks are created
// by ingestion, have their embedding populated asynchronously, and are
// never mutated by the retrieval core.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// ContentItemID links to the parent ContentItem.
	ContentItemID string

	// Index is the zero-based ordinal position within the content item.
	Index int

	// Text is the passage body.
	Text string

	// Metadata contains per-source key-value pairs such as transcript
	// timestamps, comment depth, or section heading.
	Metadata map[string]any

	// Embedding is the vector representation for semantic search.
	// Nil until the chunk has been processed.
	Embedding []float32

	// State is the processing state. Only processed chunks are
	// eligible for retrieval.
	State ChunkState
}
