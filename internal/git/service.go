package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const remoteName = "origin"

// Synchronizer keeps a cache directory in step with one remote branch.
//
// The cache is non-authoritative: local changes are discarded on every
// sync. Callers must serialize syncs of the same cache name.
type Synchronizer struct {
	config   Config
	validate *validator.Validate
	auth     transport.AuthMethod
	progress io.Writer

	logger *zap.Logger
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(config Config, validate *validator.Validate, logger *zap.Logger) (*Synchronizer, error) {
	if err := registerValidations(validate); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}

	auth, err := newAuth(config.Auth)
	if err != nil {
		return nil, err
	}

	if config.Depth < 1 {
		config.Depth = DefaultDepth
	}

	var progress io.Writer
	if config.Progress {
		progress = os.Stdout
	}

	return &Synchronizer{
		config:   config,
		validate: validate,
		auth:     auth,
		progress: progress,
		logger:   logger,
	}, nil
}

// Sync clones ref into its cache directory below cacheRoot, or fetches and
// hard resets an existing clone to the remote tip of ref.Branch.
//
// The cache is only modified after the network transfer succeeded, so a
// failed fetch leaves the previous content in place.
func (s *Synchronizer) Sync(ctx context.Context, ref Reference, cacheRoot string) (*Result, error) {
	start := time.Now()
	path := ref.Path(cacheRoot)

	state, err := s.Probe(ref, cacheRoot)
	if err != nil {
		s.logger.Error("cache probe failed",
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("synchronizing cache",
		zap.String("url", ref.URL),
		zap.String("branch", ref.Branch),
		zap.String("path", path),
		zap.String("state", string(state)))

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	var result *Result
	if state == StatePresent {
		result, err = s.update(ctx, ref, path)
	} else {
		result, err = s.clone(ctx, ref, cacheRoot, path)
	}
	if err != nil {
		s.logger.Error("failed to synchronize cache",
			zap.String("url", ref.URL),
			zap.String("branch", ref.Branch),
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}

	result.Duration = time.Since(start)

	s.logger.Info("cache synchronized",
		zap.String("path", path),
		zap.String("commit", result.Commit),
		zap.Bool("cloned", result.Cloned),
		zap.Bool("changed", result.Changed()),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// clone clones ref into a staging directory next to path and moves it into
// place only once the clone succeeded, so a failed clone leaves the cache
// absent.
func (s *Synchronizer) clone(ctx context.Context, ref Reference, cacheRoot, path string) (*Result, error) {
	if err := os.MkdirAll(cacheRoot, 0o755); err != nil { //nolint:mnd // directory permissions
		return nil, fmt.Errorf("%w: unable to create cache root %q: %w", ErrLocalPathConflict, cacheRoot, err)
	}

	staging, err := os.MkdirTemp(cacheRoot, "."+ref.Name+"-*")
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create staging directory in %q: %w", ErrLocalPathConflict, cacheRoot, err)
	}
	defer func() {
		if removeErr := os.RemoveAll(staging); removeErr != nil {
			s.logger.Warn("failed to remove staging directory", zap.String("path", staging), zap.Error(removeErr))
		}
	}()

	s.logger.Debug("cloning repository",
		zap.String("url", ref.URL),
		zap.String("branch", ref.Branch),
		zap.String("staging", staging),
		zap.Int("depth", s.config.Depth))

	repo, err := git.PlainCloneContext(ctx, staging, &git.CloneOptions{
		URL:           ref.URL,
		ReferenceName: plumbing.NewBranchReferenceName(ref.Branch),
		SingleBranch:  true,
		Depth:         s.config.Depth,
		Tags:          git.NoTags,
		Auth:          s.auth,
		Progress:      s.progress,
	})
	if err != nil {
		return nil, syncError(classify(ctx, err), ref, path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, syncError(ErrPartialCacheCorruption, ref, path, err)
	}

	// an empty directory counts as absent and is replaced
	if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return nil, syncError(ErrLocalPathConflict, ref, path, removeErr)
	}

	if renameErr := os.Rename(staging, path); renameErr != nil {
		return nil, syncError(ErrLocalPathConflict, ref, path, renameErr)
	}

	return &Result{
		Path:   path,
		Commit: head.Hash().String(),
		Cloned: true,
	}, nil
}

func (s *Synchronizer) update(ctx context.Context, ref Reference, path string) (*Result, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, syncError(ErrPartialCacheCorruption, ref, path, err)
	}

	var previous string
	if head, headErr := repo.Head(); headErr == nil {
		previous = head.Hash().String()
	}

	branch := plumbing.NewBranchReferenceName(ref.Branch)
	tracking := plumbing.NewRemoteReferenceName(remoteName, ref.Branch)

	s.logger.Debug("fetching branch",
		zap.String("url", ref.URL),
		zap.String("branch", ref.Branch),
		zap.Int("depth", s.config.Depth))

	// fetch through a detached remote so the repository config is only
	// rewritten once the fetch succeeded
	remote := git.NewRemote(repo.Storer, &config.RemoteConfig{
		Name: remoteName,
		URLs: []string{ref.URL},
	})

	err = remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RemoteURL:  ref.URL,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("+%s:%s", branch, tracking))},
		Depth:      s.config.Depth,
		Tags:       git.NoTags,
		Force:      true,
		Auth:       s.auth,
		Progress:   s.progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, syncError(classify(ctx, err), ref, path, err)
	}

	tip, err := repo.Reference(tracking, true)
	if err != nil {
		return nil, syncError(ErrBranchNotFound, ref, path, err)
	}

	if resetErr := s.reset(repo, branch, tip.Hash()); resetErr != nil {
		return nil, syncError(ErrResetFailed, ref, path, resetErr)
	}

	if originErr := s.updateOrigin(repo, ref.URL); originErr != nil {
		return nil, syncError(ErrResetFailed, ref, path, originErr)
	}

	return &Result{
		Path:     path,
		Commit:   tip.Hash().String(),
		Previous: previous,
	}, nil
}

// reset moves branch and HEAD to hash and forces the worktree to match it,
// removing untracked files.
func (s *Synchronizer) reset(repo *git.Repository, branch plumbing.ReferenceName, hash plumbing.Hash) error {
	if err := repo.Storer.SetReference(plumbing.NewHashReference(branch, hash)); err != nil {
		return fmt.Errorf("unable to move %s: %w", branch.Short(), err)
	}

	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)); err != nil {
		return fmt.Errorf("unable to switch HEAD to %s: %w", branch.Short(), err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("unable to open worktree: %w", err)
	}

	if resetErr := worktree.Reset(&git.ResetOptions{
		Commit: hash,
		Mode:   git.HardReset,
	}); resetErr != nil {
		return fmt.Errorf("unable to reset worktree: %w", resetErr)
	}

	if cleanErr := worktree.Clean(&git.CleanOptions{Dir: true}); cleanErr != nil {
		return fmt.Errorf("unable to clean worktree: %w", cleanErr)
	}

	return nil
}

// updateOrigin points origin at url, creating it when the clone lost it.
func (s *Synchronizer) updateOrigin(repo *git.Repository, url string) error {
	remote, err := repo.Remote(remoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
		s.logger.Info("creating origin", zap.String("url", url))
	case err != nil:
		return err
	default:
		urls := remote.Config().URLs
		if len(urls) == 1 && urls[0] == url {
			return nil
		}

		s.logger.Info("updating origin",
			zap.Strings("from", urls),
			zap.String("to", url))

		if delErr := repo.DeleteRemote(remoteName); delErr != nil {
			return delErr
		}
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: remoteName,
		URLs: []string{url},
	})
	return err
}

// classify maps a failed network operation to the sync error it represents.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return ErrOperationCancelled
	case isBranchMissing(err):
		return ErrBranchNotFound
	default:
		return ErrRemoteUnreachable
	}
}

func isBranchMissing(err error) bool {
	return errors.Is(err, git.ErrRemoteRefNotFound) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

func syncError(kind error, ref Reference, path string, err error) error {
	return fmt.Errorf("%w: remote %q branch %q cache %q: %w", kind, ref.URL, ref.Branch, path, err)
}
