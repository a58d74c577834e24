package domain

import "strings"

// BoolOp joins a term to the preceding terms of a boolean query.
type BoolOp int

// Boolean operators.
const (
	// OpAnd requires both sides to match. It is the implicit operator
	// between consecutive terms.
	OpAnd BoolOp = iota

	// OpOr requires either side to match.
	OpOr
)

// String returns the operator's canonical symbol.
func (o BoolOp) String() string {
	if o == OpOr {
		return "|"
	}
	return "&"
}

// BoolTerm is one term of a boolean keyword query.
type BoolTerm struct {
	// Op joins this term to the preceding terms. Ignored for the
	// first term.
	Op BoolOp

	// Negated excludes chunks matching the term.
	Negated bool

	// Text is the bare term, lowercased.
	Text string

	// Prefix enables prefix matching. Plain terms default to prefix
	// matching so partial words still hit.
	Prefix bool
}

// BooleanQuery is the parsed form of a keyword search expression.
// Adapters translate it into their store's dialect (tsquery, FTS5
// MATCH, or direct evaluation) rather than parsing raw strings
// themselves.
type BooleanQuery struct {
	Terms []BoolTerm
}

// IsEmpty returns true if the query has no terms.
func (q BooleanQuery) IsEmpty() bool {
	return len(q.Terms) == 0
}

// String renders the query in canonical symbolic form, mostly for
// logging and tests.
func (q BooleanQuery) String() string {
	var b strings.Builder
	for i, t := range q.Terms {
		if i > 0 {
			b.WriteString(" " + t.Op.String() + " ")
		}
		if t.Negated {
			b.WriteString("!")
		}
		b.WriteString(t.Text)
		if t.Prefix {
			b.WriteString(":*")
		}
	}
	return b.String()
}

// ParseBooleanQuery tokenizes a raw keyword query into a BooleanQuery.
//
// Characters outside letters, digits, whitespace, and the operator
// symbols & | ! are stripped. The bare words "and", "or", and "not"
// (and their symbols) act as operators; consecutive plain terms get an
// implicit AND between them. Plain terms default to prefix matching.
// Dangling operators are dropped, so parsing never fails: malformed
// input degrades to a smaller (possibly empty) query.
func ParseBooleanQuery(raw string) BooleanQuery {
	cleaned := stripQueryRunes(raw)

	var q BooleanQuery
	nextOp := OpAnd
	negated := false

	for _, tok := range strings.Fields(cleaned) {
		switch strings.ToLower(tok) {
		case "and", "&":
			nextOp = OpAnd
			continue
		case "or", "|":
			nextOp = OpOr
			continue
		case "not", "!":
			negated = true
			continue
		}

		// A token may still carry a glued negation like "!term".
		text := strings.ToLower(tok)
		for strings.HasPrefix(text, "!") {
			negated = true
			text = text[1:]
		}
		// Operator symbols embedded mid-token carry no structure once
		// tokenization is whitespace-based; drop them from the term.
		text = strings.Map(func(r rune) rune {
			if r == '&' || r == '|' || r == '!' {
				return -1
			}
			return r
		}, text)
		if text == "" {
			continue
		}

		q.Terms = append(q.Terms, BoolTerm{
			Op:      nextOp,
			Negated: negated,
			Text:    text,
			Prefix:  true,
		})
		nextOp = OpAnd
		negated = false
	}

	return q
}

// stripQueryRunes removes all characters outside letters, digits,
// whitespace, and the boolean operator symbols.
func stripQueryRunes(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return r
		case r == '&' || r == '|' || r == '!':
			return r
		default:
			return -1
		}
	}, raw)
}
