package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/history"
	"github.com/gofrs/flock"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const lockRetryDelay = 250 * time.Millisecond

// Runner performs one bootstrap run: preflight checks, environment setup,
// workspace layout and the cache sync.
type Runner struct {
	config Config

	preflight    Preflight
	environment  Environment
	workspace    Workspace
	synchronizer Synchronizer
	history      History

	logger *zap.Logger
}

func NewRunner(
	config Config,
	preflight Preflight,
	environment Environment,
	workspace Workspace,
	synchronizer Synchronizer,
	history History,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		config:       config,
		preflight:    preflight,
		environment:  environment,
		workspace:    workspace,
		synchronizer: synchronizer,
		history:      history,
		logger:       logger,
	}
}

// Run executes the bootstrap steps in order and stops at the first error.
func (r *Runner) Run(ctx context.Context) (*git.Result, error) {
	ref := r.config.Repository

	if err := r.preflight.Check(ctx); err != nil {
		return nil, err
	}

	if err := r.environment.Setup(ctx); err != nil {
		return nil, err
	}

	// the cache name becomes part of the lock path, so reject traversal first
	if !git.IsValidCacheName(ref.Name) {
		return nil, fmt.Errorf("%w: cache name %q", git.ErrInvalidReference, ref.Name)
	}

	layout, err := r.workspace.Prepare()
	if err != nil {
		return nil, err
	}

	unlock, err := r.lock(ctx, layout.LockFile(ref.Name))
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.sync(ctx, ref, layout.GitCache)
}

func (r *Runner) sync(ctx context.Context, ref git.Reference, cacheRoot string) (*git.Result, error) {
	path := ref.Path(cacheRoot)

	r.reportUnhealthy(ctx, ref.Name)

	state, err := r.synchronizer.Probe(ref, cacheRoot)
	if err != nil {
		r.recordFailure(ctx, ref, err)
		return nil, err
	}

	previous, err := r.history.Begin(ctx, ref, path, state.Transition())
	if err != nil {
		r.logger.Warn("failed to record sync start", zap.Error(err))
	}
	if previous != nil && previous.Interrupted() {
		r.logger.Warn("previous sync did not finish",
			zap.String("name", previous.Name),
			zap.String("state", string(previous.State)),
			zap.Time("since", previous.UpdatedAt))
	}

	result, err := r.synchronizer.Sync(ctx, ref, cacheRoot)
	if err != nil {
		r.recordFailure(ctx, ref, err)
		return nil, err
	}

	if completeErr := r.history.Complete(ctx, ref, result); completeErr != nil {
		r.logger.Warn("failed to record sync result", zap.Error(completeErr))
	}

	r.logger.Info("cache ready",
		zap.String("path", result.Path),
		zap.String("commit", result.Commit))

	return result, nil
}

// reportUnhealthy warns about other caches whose last run failed or never
// finished.
func (r *Runner) reportUnhealthy(ctx context.Context, current string) {
	records, err := r.history.List(ctx)
	if err != nil {
		r.logger.Warn("failed to list cache records", zap.Error(err))
		return
	}

	unhealthy := lo.Filter(records, func(record history.Record, _ int) bool {
		return record.Name != current && (record.Interrupted() || record.State == git.StateFailed)
	})

	for _, record := range unhealthy {
		r.logger.Warn("cache needs attention",
			zap.String("name", record.Name),
			zap.String("state", string(record.State)),
			zap.String("last_error", record.LastError),
			zap.Time("since", record.UpdatedAt))
	}
}

func (r *Runner) recordFailure(ctx context.Context, ref git.Reference, syncErr error) {
	// the run context may already be cancelled; the record must still land
	if err := r.history.Fail(context.WithoutCancel(ctx), ref, syncErr); err != nil {
		r.logger.Warn("failed to record sync failure", zap.Error(err))
	}
}

// lock takes the advisory lock of one cache name, waiting up to
// LockTimeout for a concurrent run to release it.
func (r *Runner) lock(ctx context.Context, path string) (func(), error) {
	fileLock := flock.New(path)

	lockCtx := ctx
	if r.config.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, r.config.LockTimeout)
		defer cancel()
	}

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		return nil, fmt.Errorf("%w: %s: %w", ErrLocked, path, lockError(err, lockCtx))
	}

	r.logger.Debug("cache lock acquired", zap.String("path", path))

	return func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release cache lock", zap.String("path", path), zap.Error(unlockErr))
		}
	}, nil
}

func lockError(err error, ctx context.Context) error {
	if err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return context.DeadlineExceeded
}
