package model

import "errors"

// Operation errors.
// Every failure surfaced by the criterion engine, the submission state machine
// and the compliance evaluator wraps exactly one of these sentinels, so that
// callers (usually an HTTP layer) can map them to responses with errors.Is.
var (
	// ErrNotFound is returned when a referenced task or criterion does not exist
	// or does not belong to the caller's scope.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed is returned when an operation is invoked in a state
	// that forbids it: nothing staged, no submitted deliverable, no criteria.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrValidationFailed is returned when input fails a structural check,
	// such as an upload without the expected document signature.
	ErrValidationFailed = errors.New("validation failed")

	// ErrContractViolation is returned when the classification collaborator
	// answers with a result set inconsistent with the request.
	ErrContractViolation = errors.New("classifier contract violation")

	// ErrLockedTask is returned when a submission is blocked by a supervisor lock.
	ErrLockedTask = errors.New("task is locked")
)
