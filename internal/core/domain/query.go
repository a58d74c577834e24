package domain

// QueryIntent is a coarse classification of what a query is asking for.
type QueryIntent string

// Recognised query intents, in classification priority order.
const (
	// IntentFactual asks for a definition or fact ("what is X").
	IntentFactual QueryIntent = "factual"

	// IntentExploratory asks for an overview or introduction.
	IntentExploratory QueryIntent = "exploratory"

	// IntentComparison asks to weigh alternatives against each other.
	IntentComparison QueryIntent = "comparison"

	// IntentTroubleshooting asks how to fix an error or problem.
	IntentTroubleshooting QueryIntent = "troubleshooting"

	// IntentUnknown is assigned when the query is empty or degenerate.
	IntentUnknown QueryIntent = "unknown"
)

// IsValid returns true if the intent is recognised.
func (i QueryIntent) IsValid() bool {
	switch i {
	case IntentFactual, IntentExploratory, IntentComparison,
		IntentTroubleshooting, IntentUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i QueryIntent) String() string {
	return string(i)
}

// ProcessedQuery is the output of query processing. It is transient:
// owned by the retrieval call that created it and discarded afterwards.
type ProcessedQuery struct {
	// Original is the query text as received.
	Original string

	// Cleaned is the normalised query text used for embedding.
	Cleaned string

	// Embedding is the query vector. Nil when cleaning yielded empty
	// or degenerate text.
	Embedding []float32

	// Tokens are the word tokens of the cleaned text.
	Tokens []string

	// Expansions are alternative phrasings derived from the tokens,
	// in deterministic priority order.
	Expansions []string

	// Intent is the coarse query classification.
	Intent QueryIntent
}

// IsEmpty returns true if cleaning yielded no usable query text.
func (q ProcessedQuery) IsEmpty() bool {
	return q.Cleaned == "" || len(q.Tokens) == 0
}

// DefaultMaxExpansions bounds how many query expansions are produced.
const DefaultMaxExpansions = 3

// ProcessOptions configures query processing.
type ProcessOptions struct {
	// Expand enables query expansion. Disabled expansions leave the
	// Expansions slice empty.
	Expand bool

	// MaxExpansions truncates the expansion list. Values <= 0 default
	// to DefaultMaxExpansions.
	MaxExpansions int
}

// DefaultProcessOptions returns the standard processing configuration.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{Expand: true, MaxExpansions: DefaultMaxExpansions}
}
