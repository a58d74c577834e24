package domain

// Citation points a generated answer back at the chunk that supports it.
type Citation struct {
	// ChunkID identifies the cited chunk.
	ChunkID string

	// ContentItemID identifies the parent content item.
	ContentItemID string

	// Title is the parent item's title.
	Title string

	// ChannelName is the parent item's channel display name.
	ChannelName string

	// SourceType identifies the originating platform.
	SourceType SourceType

	// Ordinal is the 1-based citation number used in the context text.
	Ordinal int
}

// ContextBlock is a generation-ready context assembled from reranked
// candidates under a token budget. The generation component (outside
// this core) consumes it as-is.
type ContextBlock struct {
	// Text is the concatenated passage text with citation markers.
	Text string

	// Citations maps citation ordinals back to chunks.
	Citations []Citation

	// TokenCount is the approximate token count of Text.
	TokenCount int

	// Truncated is true when the budget forced candidates to be
	// dropped.
	Truncated bool
}
