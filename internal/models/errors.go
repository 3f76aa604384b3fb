package models

import "errors"

var (
	// ErrServiceUnavailable covers transport failures and non-success responses
	// from the simulation service. Callers may retry.
	ErrServiceUnavailable = errors.New("simulation service unavailable")

	// ErrContractViolation marks a call made in a state that does not allow it.
	// It signals a bug in the caller, not a runtime condition.
	ErrContractViolation = errors.New("contract violation")
)
