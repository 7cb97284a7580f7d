package preflight

import "errors"

var (
	ErrPrecondition = errors.New("precondition failed")

	ErrInterpreterMissing = errors.New("interpreter not available")
	ErrInterpreterVersion = errors.New("unsupported interpreter version")
	ErrToolMissing        = errors.New("required tool not installed")
	ErrContainerRuntime   = errors.New("container daemon not reachable")
	ErrInvalidConstraint  = errors.New("invalid version constraint")
)
