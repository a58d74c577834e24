package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailurePolicy_Recover_FailOpen(t *testing.T) {
	policy := NewFailurePolicy(FailOpen)

	assert.NoError(t, policy.Recover("semantic", errors.New("store down")))
	assert.NoError(t, policy.Recover("keyword", nil))
}

func TestFailurePolicy_Recover_FailClosed(t *testing.T) {
	policy := NewFailurePolicy(FailClosed)
	stageErr := errors.New("store down")

	assert.ErrorIs(t, policy.Recover("semantic", stageErr), stageErr)
	assert.NoError(t, policy.Recover("semantic", nil))
}

func TestFailurePolicy_NilBehavesAsFailOpen(t *testing.T) {
	var policy *FailurePolicy

	assert.Equal(t, FailOpen, policy.Mode())
	assert.NoError(t, policy.Recover("keyword", errors.New("store down")))
}
