package bootstrap

import (
	"context"

	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/history"
	"github.com/apiarycd/repocache/internal/workspace"
)

// Preflight checks the host before any work begins.
type Preflight interface {
	Check(ctx context.Context) error
}

// Environment runs the environment setup steps.
type Environment interface {
	Setup(ctx context.Context) error
}

// Workspace creates the directory layout.
type Workspace interface {
	Prepare() (workspace.Layout, error)
}

// Synchronizer converges a cache directory to a remote branch.
type Synchronizer interface {
	Probe(ref git.Reference, cacheRoot string) (git.State, error)
	Sync(ctx context.Context, ref git.Reference, cacheRoot string) (*git.Result, error)
}

// History persists the sync state of each cache name.
type History interface {
	Begin(ctx context.Context, ref git.Reference, path string, state git.State) (*history.Record, error)
	Complete(ctx context.Context, ref git.Reference, result *git.Result) error
	Fail(ctx context.Context, ref git.Reference, syncErr error) error
	List(ctx context.Context) ([]history.Record, error)
}
