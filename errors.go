package mity

import "errors"

var (
	// Not found errors.
	ErrWorkflowNotFound = errors.New("mity: workflow not found")
	ErrStationNotFound  = errors.New("mity: station not found in registry")
	ErrLogNotFound      = errors.New("mity: execution log not found")

	// State errors.
	ErrInvalidState = errors.New("mity: invalid workflow state")

	// Execution errors.
	ErrStationExecutionFailed = errors.New("mity: station execution failed")
	ErrDependencyNotSatisfied = errors.New("mity: station dependency not satisfied")
)
