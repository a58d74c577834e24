package services

import (
	"github.com/siftlabs/sift/internal/logger"
)

// FailureMode selects how stage failures are handled.
type FailureMode int

// Failure handling modes.
const (
	// FailOpen converts a stage failure into an empty contribution
	// plus a logged warning. Retrieval degrades instead of crashing.
	FailOpen FailureMode = iota

	// FailClosed propagates stage failures to the caller. Useful in
	// deployments where partial results are worse than no results.
	FailClosed
)

// FailurePolicy is the "degrade, don't crash" decision point consulted
// by stage callers. A nil policy behaves as FailOpen.
type FailurePolicy struct {
	mode FailureMode
}

// NewFailurePolicy creates a policy with the given mode.
func NewFailurePolicy(mode FailureMode) *FailurePolicy {
	return &FailurePolicy{mode: mode}
}

// Mode returns the configured failure mode.
func (p *FailurePolicy) Mode() FailureMode {
	if p == nil {
		return FailOpen
	}
	return p.mode
}

// Recover decides what happens to a stage failure. Under FailOpen the
// error is swallowed (logged) and the stage contributes nothing; under
// FailClosed the error is returned for the caller to propagate.
func (p *FailurePolicy) Recover(stage string, err error) error {
	if err == nil {
		return nil
	}
	if p.Mode() == FailClosed {
		return err
	}
	logger.Warn("%s stage failed, continuing without it: %v", stage, err)
	return nil
}
