package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    ChunkState
		expected bool
	}{
		{name: "pending is valid", state: ChunkStatePending, expected: true},
		{name: "processing is valid", state: ChunkStateProcessing, expected: true},
		{name: "processed is valid", state: ChunkStateProcessed, expected: true},
		{name: "failed is valid", state: ChunkStateFailed, expected: true},
		{name: "empty string is invalid", state: ChunkState(""), expected: false},
		{name: "unknown state is invalid", state: ChunkState("done"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsValid())
		})
	}
}

func TestChunkState_Retrievable(t *testing.T) {
	assert.True(t, ChunkStateProcessed.Retrievable())
	assert.False(t, ChunkStatePending.Retrievable())
	assert.False(t, ChunkStateProcessing.Retrievable())
	assert.False(t, ChunkStateFailed.Retrievable())
}

func TestChunkState_CanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     ChunkState
		to       ChunkState
		expected bool
	}{
		{name: "pending to processing", from: ChunkStatePending, to: ChunkStateProcessing, expected: true},
		{name: "pending to failed", from: ChunkStatePending, to: ChunkStateFailed, expected: true},
		{name: "pending straight to processed", from: ChunkStatePending, to: ChunkStateProcessed, expected: false},
		{name: "processing to processed", from: ChunkStateProcessing, to: ChunkStateProcessed, expected: true},
		{name: "processing to failed", from: ChunkStateProcessing, to: ChunkStateFailed, expected: true},
		{name: "processing back to pending", from: ChunkStateProcessing, to: ChunkStatePending, expected: false},
		{name: "processed is terminal", from: ChunkStateProcessed, to: ChunkStateFailed, expected: false},
		{name: "failed is terminal", from: ChunkStateFailed, to: ChunkStatePending, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransition(tt.to))
		})
	}
}
