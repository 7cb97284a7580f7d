package environment

import "errors"

var (
	ErrInvalidStep = errors.New("invalid setup step")
	ErrStepFailed  = errors.New("setup step failed")
)
