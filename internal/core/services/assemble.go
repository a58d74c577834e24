package services

import (
	"fmt"
	"strings"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/logger"
)

// Ensure AssemblerService implements the interface.
var _ driving.ContextAssembler = (*AssemblerService)(nil)

// DefaultTokenBudget is the context size handed to generation when the
// caller does not specify one.
const DefaultTokenBudget = 2000

// charsPerToken is the approximation used for budgeting. Real token
// counts are model-specific; four characters per token is close enough
// for capacity planning and always errs conservatively for English.
const charsPerToken = 4

// AssemblerService packs reranked candidates into a generation-ready
// context block under a token budget.
type AssemblerService struct {
	defaultBudget int
}

// NewAssemblerService creates an assembler. budget <= 0 uses
// DefaultTokenBudget.
func NewAssemblerService(budget int) *AssemblerService {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &AssemblerService{defaultBudget: budget}
}

// Assemble includes whole chunks, highest rerank first, until the
// budget is exhausted. Chunks are never split: a passage cut mid-way
// is worse for generation than one passage fewer.
func (s *AssemblerService) Assemble(
	candidates []domain.RerankedCandidate, budget int,
) domain.ContextBlock {
	if budget <= 0 {
		budget = s.defaultBudget
	}

	var (
		b     strings.Builder
		block domain.ContextBlock
	)

	for _, c := range candidates {
		ordinal := len(block.Citations) + 1
		passage := fmt.Sprintf("[%d] %s — %s (%s)\n%s\n\n",
			ordinal, c.Title, c.ChannelName, c.SourceType, c.Text)

		cost := estimateTokens(passage)
		if block.TokenCount+cost > budget {
			block.Truncated = true
			continue
		}

		b.WriteString(passage)
		block.TokenCount += cost
		block.Citations = append(block.Citations, domain.Citation{
			ChunkID:       c.ChunkID,
			ContentItemID: c.ContentItemID,
			Title:         c.Title,
			ChannelName:   c.ChannelName,
			SourceType:    c.SourceType,
			Ordinal:       ordinal,
		})
	}

	block.Text = strings.TrimRight(b.String(), "\n")
	if block.Truncated {
		logger.Debug("Context budget %d reached, included %d of %d candidates",
			budget, len(block.Citations), len(candidates))
	}
	return block
}

// estimateTokens approximates the token count of text.
func estimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}
