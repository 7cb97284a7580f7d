package git

import "errors"

var (
	ErrInvalidReference       = errors.New("invalid repository reference")
	ErrRemoteUnreachable      = errors.New("remote unreachable")
	ErrBranchNotFound         = errors.New("branch not found")
	ErrLocalPathConflict      = errors.New("local path conflict")
	ErrPartialCacheCorruption = errors.New("partial cache corruption")
	ErrResetFailed            = errors.New("failed to reset cache to remote tip")
	ErrAuthConfig             = errors.New("invalid authentication config")
	ErrTimeout                = errors.New("operation timeout")
	ErrOperationCancelled     = errors.New("operation cancelled")
)
