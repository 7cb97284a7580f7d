package bootstrap

import (
	"errors"

	"github.com/apiarycd/repocache/internal/environment"
	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/preflight"
	"github.com/apiarycd/repocache/internal/workspace"
	"github.com/samber/lo"
)

var ErrLocked = errors.New("cache is locked by another run")

const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitPrecondition = 2
	ExitSync         = 3
)

var preconditionErrors = []error{
	preflight.ErrPrecondition,
	environment.ErrStepFailed,
	environment.ErrInvalidStep,
}

var syncErrors = []error{
	git.ErrInvalidReference,
	git.ErrRemoteUnreachable,
	git.ErrBranchNotFound,
	git.ErrLocalPathConflict,
	git.ErrPartialCacheCorruption,
	git.ErrResetFailed,
	git.ErrTimeout,
	git.ErrOperationCancelled,
	workspace.ErrLayoutConflict,
	ErrLocked,
}

// ExitCode maps the error of a run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	matches := func(target error) bool { return errors.Is(err, target) }

	switch {
	case lo.ContainsBy(preconditionErrors, matches):
		return ExitPrecondition
	case lo.ContainsBy(syncErrors, matches):
		return ExitSync
	default:
		return ExitFailure
	}
}
