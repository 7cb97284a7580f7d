package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
)

// Probe inspects the cache directory of ref without touching it.
//
// An empty or missing directory is StateAbsent; a directory holding a
// repository whose HEAD resolves is StatePresent. Anything else is reported
// as ErrLocalPathConflict or ErrPartialCacheCorruption.
func (s *Synchronizer) Probe(ref Reference, cacheRoot string) (State, error) {
	if err := s.validate.Struct(ref); err != nil {
		return StateFailed, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}

	root, err := os.Stat(cacheRoot)
	switch {
	case err == nil && !root.IsDir():
		return StateFailed, fmt.Errorf("%w: cache root %q is not a directory", ErrLocalPathConflict, cacheRoot)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return StateFailed, fmt.Errorf("unable to access cache root %q: %w", cacheRoot, err)
	}

	path := ref.Path(cacheRoot)

	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return StateAbsent, nil
	}
	if err != nil {
		return StateFailed, fmt.Errorf("unable to access cache %q: %w", path, err)
	}

	if !info.IsDir() {
		return StateFailed, fmt.Errorf("%w: %q exists and is not a directory", ErrLocalPathConflict, path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return StateFailed, fmt.Errorf("unable to read cache %q: %w", path, err)
	}
	if len(entries) == 0 {
		return StateAbsent, nil
	}

	marker := filepath.Join(path, git.GitDirName)
	if _, statErr := os.Stat(marker); statErr != nil {
		return StateFailed, fmt.Errorf(
			"%w: %q is not empty but has no repository metadata", ErrPartialCacheCorruption, path,
		)
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return StateFailed, fmt.Errorf("%w: unable to open %q: %w", ErrPartialCacheCorruption, path, err)
	}

	if _, headErr := repo.Head(); headErr != nil {
		return StateFailed, fmt.Errorf("%w: HEAD of %q does not resolve: %w", ErrPartialCacheCorruption, path, headErr)
	}

	return StatePresent, nil
}
