package git

import (
	"path/filepath"
	"time"
)

// Reference identifies the remote branch to mirror and the cache entry it
// is mirrored into.
type Reference struct {
	URL    string `validate:"required"`           // Remote repository URL
	Branch string `validate:"required"`           // Branch to mirror
	Name   string `validate:"required,cachename"` // Cache directory name
}

// Path returns the cache directory of r under cacheRoot.
func (r Reference) Path(cacheRoot string) string {
	return filepath.Join(cacheRoot, r.Name)
}

// Result describes a completed synchronization.
type Result struct {
	Path     string        // Synchronized cache directory
	Commit   string        // Commit the worktree now matches
	Previous string        // Commit before the sync, empty after a clone
	Cloned   bool          // Whether the cache was created by this sync
	Duration time.Duration // Wall time of the sync
}

// Changed reports whether the sync moved the cache to a different commit.
func (r *Result) Changed() bool {
	return r.Cloned || r.Previous != r.Commit
}
