package workspace

import "path/filepath"

const (
	dirGitCache  = "git-cache"
	dirWorkspace = "workspace"
	dirHostFiles = "host-files"
	dirLocks     = ".locks"
)

// Layout is the set of directories shared with the downstream container step.
type Layout struct {
	Root      string
	GitCache  string // Repository caches, one directory per cache name
	Workspace string // Working directory mounted into the container
	HostFiles string // Files exchanged with the host
	Locks     string // Advisory lock files, one per cache name
}

func newLayout(root string) Layout {
	return Layout{
		Root:      root,
		GitCache:  filepath.Join(root, dirGitCache),
		Workspace: filepath.Join(root, dirWorkspace),
		HostFiles: filepath.Join(root, dirHostFiles),
		Locks:     filepath.Join(root, dirLocks),
	}
}

// LockFile returns the lock file guarding the cache of name.
func (l Layout) LockFile(name string) string {
	return filepath.Join(l.Locks, name+".lock")
}

func (l Layout) dirs() []string {
	return []string{l.GitCache, l.Workspace, l.HostFiles, l.Locks}
}
