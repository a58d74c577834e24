package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/siftlabs/sift/internal/core/domain"
	"github.com/siftlabs/sift/internal/core/ports/driven"
	"github.com/siftlabs/sift/internal/core/ports/driving"
	"github.com/siftlabs/sift/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryProcessor = (*QueryService)(nil)

// minQueryLength is the shortest cleaned query worth processing.
const minQueryLength = 2

var (
	punctuationRe = regexp.MustCompile(`[^a-z0-9\s-]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	wordTokenRe   = regexp.MustCompile(`[a-z0-9_]+`)
)

// expansionStopSet holds interrogative and auxiliary words removed when
// deriving the first query expansion.
var expansionStopSet = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "is": {}, "are": {}, "can": {},
	"does": {}, "do": {},
}

// intentKeywords maps each intent to its trigger tokens. Intents are
// checked in priority order; the first set with a hit wins.
var intentKeywords = []struct {
	intent domain.QueryIntent
	words  map[string]struct{}
}{
	{domain.IntentFactual, map[string]struct{}{
		"what": {}, "who": {}, "when": {}, "where": {}, "which": {},
		"define": {}, "definition": {}, "meaning": {},
	}},
	{domain.IntentExploratory, map[string]struct{}{
		"how": {}, "overview": {}, "introduction": {}, "explain": {},
		"learn": {}, "guide": {}, "tutorial": {},
	}},
	{domain.IntentComparison, map[string]struct{}{
		"vs": {}, "versus": {}, "compare": {}, "comparison": {},
		"difference": {}, "better": {}, "best": {},
	}},
	{domain.IntentTroubleshooting, map[string]struct{}{
		"error": {}, "fix": {}, "issue": {}, "problem": {},
		"debug": {}, "crash": {}, "broken": {}, "fails": {},
	}},
}

// QueryService turns raw query text into ProcessedQuery values.
type QueryService struct {
	embedder driven.EmbeddingService
}

// NewQueryService creates a new query processor. The embedder may be
// nil, in which case Process returns a typed error for non-degenerate
// queries: callers that want keyword-only retrieval should not request
// embeddings at all.
func NewQueryService(embedder driven.EmbeddingService) *QueryService {
	return &QueryService{embedder: embedder}
}

// Process cleans, tokenizes, embeds, expands, and classifies a query.
func (s *QueryService) Process(
	ctx context.Context, text string, opts domain.ProcessOptions,
) (domain.ProcessedQuery, error) {
	cleaned := CleanQuery(text)

	pq := domain.ProcessedQuery{
		Original: text,
		Cleaned:  cleaned,
		Intent:   domain.IntentUnknown,
	}

	// Degenerate input degrades gracefully: downstream consumers get
	// an empty ProcessedQuery, never an error.
	if len(cleaned) < minQueryLength {
		logger.Debug("Query too short after cleaning: %q", text)
		return pq, nil
	}

	pq.Tokens = Tokenize(cleaned)
	pq.Intent = classifyIntent(pq.Tokens)

	if opts.Expand {
		maxExp := opts.MaxExpansions
		if maxExp <= 0 {
			maxExp = domain.DefaultMaxExpansions
		}
		pq.Expansions = expandQuery(pq.Tokens, maxExp)
	}

	if s.embedder == nil {
		return pq, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, cleaned)
	if err != nil {
		return pq, fmt.Errorf("embed query: %w", err)
	}
	pq.Embedding = embedding

	logger.Debug("Processed query: %d tokens, %d expansions, intent=%s",
		len(pq.Tokens), len(pq.Expansions), pq.Intent)

	return pq, nil
}

// ProcessBatch processes queries sequentially. The embedding provider
// is invoked once per item, not batched; throughput matters less than
// simplicity at this layer.
func (s *QueryService) ProcessBatch(
	ctx context.Context, texts []string, opts domain.ProcessOptions,
) ([]domain.ProcessedQuery, error) {
	results := make([]domain.ProcessedQuery, 0, len(texts))
	for i, text := range texts {
		pq, err := s.Process(ctx, text, opts)
		if err != nil {
			return nil, fmt.Errorf("process query %d: %w", i, err)
		}
		results = append(results, pq)
	}
	return results, nil
}

// CleanQuery normalises raw query text: lowercase, punctuation stripped
// (internal hyphens survive), whitespace collapsed, trimmed.
// Cleaning is idempotent.
func CleanQuery(text string) string {
	text = strings.ToLower(text)
	text = punctuationRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")

	// Hyphens are kept only between word characters; leading and
	// trailing runs are noise from stripped punctuation.
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// Tokenize extracts word tokens from cleaned text, dropping tokens
// shorter than two characters.
func Tokenize(cleaned string) []string {
	var tokens []string
	for _, tok := range wordTokenRe.FindAllString(cleaned, -1) {
		if len(tok) >= minQueryLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// expandQuery derives alternative phrasings from the token list, in a
// fixed order so results are deterministic:
//
//  1. tokens with the interrogative stop-set removed, when that
//     actually removed something
//  2. the last two content tokens
//  3. the first three content tokens
//
// Duplicates are skipped and the list is truncated to maxExpansions.
func expandQuery(tokens []string, maxExpansions int) []string {
	content := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := expansionStopSet[tok]; !stop {
			content = append(content, tok)
		}
	}

	var expansions []string
	add := func(candidate string) {
		if candidate == "" {
			return
		}
		for _, e := range expansions {
			if e == candidate {
				return
			}
		}
		expansions = append(expansions, candidate)
	}

	if len(content) > 0 && len(content) != len(tokens) {
		add(strings.Join(content, " "))
	}
	if len(content) >= 2 {
		add(strings.Join(content[len(content)-2:], " "))
		first := content
		if len(first) > 3 {
			first = first[:3]
		}
		add(strings.Join(first, " "))
	}

	if len(expansions) > maxExpansions {
		expansions = expansions[:maxExpansions]
	}
	return expansions
}

// classifyIntent matches tokens against the ordered intent keyword
// sets. This is exact string membership, not semantic understanding;
// unmatched queries default to factual.
func classifyIntent(tokens []string) domain.QueryIntent {
	for _, entry := range intentKeywords {
		for _, tok := range tokens {
			if _, ok := entry.words[tok]; ok {
				return entry.intent
			}
		}
	}
	return domain.IntentFactual
}
