package driving

import "github.com/siftlabs/sift/internal/core/domain"

// ContextAssembler packs reranked candidates into a generation-ready
// context block under a token budget. The generation component
// consumes the block as-is; no further ranking occurs downstream.
type ContextAssembler interface {
	// Assemble takes candidates in rerank order and includes whole
	// chunks, highest rank first, until the token budget is exhausted.
	// budget <= 0 uses the assembler's configured default.
	Assemble(candidates []domain.RerankedCandidate, budget int) domain.ContextBlock
}
