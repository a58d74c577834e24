package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalWeights_Normalised(t *testing.T) {
	tests := []struct {
		name     string
		weights  RetrievalWeights
		expected RetrievalWeights
	}{
		{
			name:     "already normalised is unchanged",
			weights:  RetrievalWeights{Semantic: 0.6, Keyword: 0.3, Metadata: 0.1},
			expected: RetrievalWeights{Semantic: 0.6, Keyword: 0.3, Metadata: 0.1},
		},
		{
			name:     "oversized weights scale down",
			weights:  RetrievalWeights{Semantic: 6, Keyword: 3, Metadata: 1},
			expected: RetrievalWeights{Semantic: 0.6, Keyword: 0.3, Metadata: 0.1},
		},
		{
			name:     "undersized weights scale up",
			weights:  RetrievalWeights{Semantic: 0.1, Keyword: 0.1, Metadata: 0.05},
			expected: RetrievalWeights{Semantic: 0.4, Keyword: 0.4, Metadata: 0.2},
		},
		{
			name:     "zero weights fall back to defaults",
			weights:  RetrievalWeights{},
			expected: DefaultRetrievalWeights(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.weights.Normalised()
			assert.InDelta(t, tt.expected.Semantic, got.Semantic, 1e-6)
			assert.InDelta(t, tt.expected.Keyword, got.Keyword, 1e-6)
			assert.InDelta(t, tt.expected.Metadata, got.Metadata, 1e-6)
			assert.InDelta(t, 1.0, got.Sum(), 1e-6)
		})
	}
}

func TestDefaultRetrievalWeights_SumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultRetrievalWeights().Sum(), 1e-6)
}
