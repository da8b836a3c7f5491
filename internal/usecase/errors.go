package usecase

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidInput = crerr.New("invalid input")
	ErrNotFound     = crerr.New("resource not found")
	// ErrValidation marks structurally invalid mappings: self-mappings,
	// unknown target players, out-of-range confidence.
	ErrValidation = crerr.New("validation failed")
	// ErrConflict marks state transitions the lifecycle forbids, such as
	// rejecting an applied mapping without reversing it first.
	ErrConflict = crerr.New("conflicting mapping state")
	// ErrDuplicateParticipation marks a materialization or reversal that
	// would record the same player twice in one sub-match team slot.
	ErrDuplicateParticipation = crerr.New("duplicate participation")
	// ErrAmbiguousEvidence marks groups the evaluator refuses to decide.
	ErrAmbiguousEvidence = crerr.New("ambiguous evidence")
)
