package git

import (
	"context"
	"net/http"
	"net/http/cgi"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// upstream is a non-bare repository used as the remote in tests.
type upstream struct {
	t    *testing.T
	path string
	repo *git.Repository
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upstream")
	require.NoError(t, os.MkdirAll(path, 0o755))

	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)

	// Pin the initial branch so tests do not depend on the library default.
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main")),
	))

	return &upstream{t: t, path: path, repo: repo}
}

func (u *upstream) commit(message string, files map[string]string, removed ...string) plumbing.Hash {
	u.t.Helper()

	worktree, err := u.repo.Worktree()
	require.NoError(u.t, err)

	for name, content := range files {
		full := filepath.Join(u.path, name)
		require.NoError(u.t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(u.t, os.WriteFile(full, []byte(content), 0o644))
		_, err = worktree.Add(name)
		require.NoError(u.t, err)
	}

	for _, name := range removed {
		_, err = worktree.Remove(name)
		require.NoError(u.t, err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(u.t, err)

	return hash
}

func (u *upstream) branch(name string) {
	u.t.Helper()

	worktree, err := u.repo.Worktree()
	require.NoError(u.t, err)

	require.NoError(u.t, worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}))
}

// serveHTTP exposes the upstream over smart HTTP through git http-backend,
// the transport shallow negotiation is tested against.
func (u *upstream) serveHTTP() string {
	u.t.Helper()

	gitPath, err := exec.LookPath("git")
	if err != nil {
		u.t.Skip("git binary is required to serve smart HTTP")
	}

	server := httptest.NewServer(&cgi.Handler{
		Path: gitPath,
		Args: []string{"http-backend"},
		Env: []string{
			"GIT_PROJECT_ROOT=" + filepath.Dir(u.path),
			"GIT_HTTP_EXPORT_ALL=1",
			"HOME=" + u.t.TempDir(),
		},
		InheritEnv: []string{"PATH"},
	})
	u.t.Cleanup(server.Close)

	return server.URL + "/" + filepath.Base(u.path)
}

func newTestSynchronizer(t *testing.T) *Synchronizer {
	t.Helper()

	s, err := NewSynchronizer(Config{Depth: 1}, validator.New(), zaptest.NewLogger(t))
	require.NoError(t, err)

	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestSynchronizer_FreshClone(t *testing.T) {
	remote := newUpstream(t)
	remote.commit("first", map[string]string{"README.md": "v1"})
	tip := remote.commit("second", map[string]string{"README.md": "v2", "src/main.go": "package main"})

	cacheRoot := filepath.Join(t.TempDir(), "git-cache")
	ref := Reference{URL: remote.path, Branch: "main", Name: "proj"}

	result, err := newTestSynchronizer(t).Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cacheRoot, "proj"), result.Path)
	assert.Equal(t, tip.String(), result.Commit)
	assert.True(t, result.Cloned)
	assert.True(t, result.Changed())
	assert.Empty(t, result.Previous)

	assert.Equal(t, "v2", readFile(t, filepath.Join(result.Path, "README.md")))
	assert.Equal(t, "package main", readFile(t, filepath.Join(result.Path, "src", "main.go")))

	entries, err := os.ReadDir(cacheRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no staging directory may remain")
	assert.Equal(t, "proj", entries[0].Name())
}

func TestSynchronizer_FreshCloneIsShallow(t *testing.T) {
	remote := newUpstream(t)
	first := remote.commit("first", map[string]string{"README.md": "v1"})
	remote.commit("second", map[string]string{"README.md": "v2"})
	tip := remote.commit("third", map[string]string{"README.md": "v3"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: remote.serveHTTP(), Branch: "main", Name: "proj"}

	result, err := newTestSynchronizer(t).Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)
	assert.Equal(t, tip.String(), result.Commit)
	assert.Equal(t, "v3", readFile(t, filepath.Join(result.Path, "README.md")))

	repo, err := git.PlainOpen(result.Path)
	require.NoError(t, err)

	shallow, err := repo.Storer.Shallow()
	require.NoError(t, err)
	assert.Equal(t, []plumbing.Hash{tip}, shallow, "history should be truncated at the tip")

	_, err = repo.CommitObject(first)
	assert.ErrorIs(t, err, plumbing.ErrObjectNotFound, "older commits must not be fetched")
}

func TestSynchronizer_Idempotent(t *testing.T) {
	remote := newUpstream(t)
	tip := remote.commit("first", map[string]string{"a.txt": "a"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: remote.path, Branch: "main", Name: "proj"}
	s := newTestSynchronizer(t)

	first, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	second, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	assert.False(t, second.Cloned)
	assert.False(t, second.Changed())
	assert.Equal(t, first.Commit, second.Commit)
	assert.Equal(t, tip.String(), second.Previous)
	assert.Equal(t, "a", readFile(t, filepath.Join(second.Path, "a.txt")))
}

func TestSynchronizer_UpdateConvergesToRemoteTip(t *testing.T) {
	remote := newUpstream(t)
	c1 := remote.commit("c1", map[string]string{"keep.txt": "1", "gone.txt": "bye"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: remote.path, Branch: "main", Name: "proj"}
	s := newTestSynchronizer(t)

	_, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	cachePath := ref.Path(cacheRoot)
	// local divergence that a hard reset must discard
	require.NoError(t, os.WriteFile(filepath.Join(cachePath, "keep.txt"), []byte("local edit"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cachePath, "scratch.txt"), []byte("untracked"), 0o644))

	c2 := remote.commit("c2", map[string]string{"keep.txt": "2", "new.txt": "hello"}, "gone.txt")

	result, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	assert.False(t, result.Cloned)
	assert.Equal(t, c1.String(), result.Previous)
	assert.Equal(t, c2.String(), result.Commit)
	assert.True(t, result.Changed())

	assert.Equal(t, "2", readFile(t, filepath.Join(cachePath, "keep.txt")))
	assert.Equal(t, "hello", readFile(t, filepath.Join(cachePath, "new.txt")))
	assert.NoFileExists(t, filepath.Join(cachePath, "gone.txt"))
	assert.NoFileExists(t, filepath.Join(cachePath, "scratch.txt"))

	repo, err := git.PlainOpen(cachePath)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewBranchReferenceName("main"), head.Name())
	assert.Equal(t, c2, head.Hash())

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	status, err := worktree.Status()
	require.NoError(t, err)
	assert.True(t, status.IsClean(), "worktree should be clean, got %s", status)
}

func TestSynchronizer_FetchFailurePreservesContent(t *testing.T) {
	remote := newUpstream(t)
	remote.commit("c1", map[string]string{"file.txt": "original"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: remote.path, Branch: "main", Name: "proj"}
	s := newTestSynchronizer(t)

	_, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	cachePath := ref.Path(cacheRoot)
	require.NoError(t, os.WriteFile(filepath.Join(cachePath, "file.txt"), []byte("local"), 0o644))

	unreachable := ref
	unreachable.URL = filepath.Join(t.TempDir(), "does-not-exist")

	_, err = s.Sync(context.Background(), unreachable, cacheRoot)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRemoteUnreachable)
	assert.Contains(t, err.Error(), unreachable.URL)
	assert.Contains(t, err.Error(), cachePath)

	assert.Equal(t, "local", readFile(t, filepath.Join(cachePath, "file.txt")))

	state, err := s.Probe(ref, cacheRoot)
	require.NoError(t, err)
	assert.Equal(t, StatePresent, state)
}

func TestSynchronizer_PathConflict(t *testing.T) {
	cacheRoot := t.TempDir()
	conflict := filepath.Join(cacheRoot, "proj")
	require.NoError(t, os.WriteFile(conflict, []byte("not a repository"), 0o644))

	ref := Reference{URL: "https://example.invalid/repo.git", Branch: "main", Name: "proj"}

	_, err := newTestSynchronizer(t).Sync(context.Background(), ref, cacheRoot)
	require.ErrorIs(t, err, ErrLocalPathConflict)

	assert.Equal(t, "not a repository", readFile(t, conflict))
}

func TestSynchronizer_CacheRootIsFile(t *testing.T) {
	cacheRoot := filepath.Join(t.TempDir(), "git-cache")
	require.NoError(t, os.WriteFile(cacheRoot, []byte("x"), 0o644))

	ref := Reference{URL: "https://example.invalid/repo.git", Branch: "main", Name: "proj"}

	_, err := newTestSynchronizer(t).Sync(context.Background(), ref, cacheRoot)
	require.ErrorIs(t, err, ErrLocalPathConflict)
}

func TestSynchronizer_PartialCacheCorruption(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{
			name: "files without metadata",
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(filepath.Join(path, "README.md"), []byte("leftover"), 0o644))
			},
		},
		{
			name: "empty metadata directory",
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.MkdirAll(filepath.Join(path, ".git"), 0o755))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cacheRoot := t.TempDir()
			ref := Reference{URL: "https://example.invalid/repo.git", Branch: "main", Name: "proj"}
			path := ref.Path(cacheRoot)
			require.NoError(t, os.MkdirAll(path, 0o755))
			tt.setup(t, path)

			_, err := newTestSynchronizer(t).Sync(context.Background(), ref, cacheRoot)
			require.ErrorIs(t, err, ErrPartialCacheCorruption)

			assert.DirExists(t, path)
		})
	}
}

func TestSynchronizer_BranchNotFound(t *testing.T) {
	remote := newUpstream(t)
	remote.commit("c1", map[string]string{"file.txt": "x"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: remote.path, Branch: "missing", Name: "proj"}
	s := newTestSynchronizer(t)

	_, err := s.Sync(context.Background(), ref, cacheRoot)
	require.ErrorIs(t, err, ErrBranchNotFound)

	state, err := s.Probe(ref, cacheRoot)
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)

	ref.Branch = "main"
	result, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err, "a failed clone must not block the next sync")
	assert.True(t, result.Cloned)
}

func TestSynchronizer_FailedCloneLeavesCacheAbsent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{
			name:  "missing directory",
			setup: func(_ *testing.T, _ string) {},
		},
		{
			name: "empty directory",
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.MkdirAll(path, 0o755))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newUpstream(t)
			tip := remote.commit("c1", map[string]string{"file.txt": "x"})

			cacheRoot := t.TempDir()
			ref := Reference{URL: filepath.Join(t.TempDir(), "does-not-exist"), Branch: "main", Name: "proj"}
			tt.setup(t, ref.Path(cacheRoot))
			s := newTestSynchronizer(t)

			_, err := s.Sync(context.Background(), ref, cacheRoot)
			require.ErrorIs(t, err, ErrRemoteUnreachable)

			state, err := s.Probe(ref, cacheRoot)
			require.NoError(t, err)
			assert.Equal(t, StateAbsent, state)

			entries, err := os.ReadDir(cacheRoot)
			require.NoError(t, err)
			for _, entry := range entries {
				assert.Equal(t, "proj", entry.Name(), "no staging directory may remain")
			}

			ref.URL = remote.path
			result, err := s.Sync(context.Background(), ref, cacheRoot)
			require.NoError(t, err)
			assert.Equal(t, tip.String(), result.Commit)
		})
	}
}

func TestSynchronizer_RemoteURLChange(t *testing.T) {
	original := newUpstream(t)
	c1 := original.commit("c1", map[string]string{"file.txt": "original"})

	mirror := newUpstream(t)
	c2 := mirror.commit("c2", map[string]string{"file.txt": "mirror", "extra.txt": "x"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: original.path, Branch: "main", Name: "proj"}
	s := newTestSynchronizer(t)

	_, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	ref.URL = mirror.path
	result, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	assert.Equal(t, c1.String(), result.Previous)
	assert.Equal(t, c2.String(), result.Commit)
	assert.Equal(t, "mirror", readFile(t, filepath.Join(result.Path, "file.txt")))

	repo, err := git.PlainOpen(result.Path)
	require.NoError(t, err)

	origin, err := repo.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{mirror.path}, origin.Config().URLs)
}

func TestSynchronizer_FetchFailureKeepsOrigin(t *testing.T) {
	remote := newUpstream(t)
	remote.commit("c1", map[string]string{"file.txt": "x"})

	cacheRoot := t.TempDir()
	ref := Reference{URL: remote.path, Branch: "main", Name: "proj"}
	s := newTestSynchronizer(t)

	_, err := s.Sync(context.Background(), ref, cacheRoot)
	require.NoError(t, err)

	unreachable := ref
	unreachable.URL = filepath.Join(t.TempDir(), "does-not-exist")

	_, err = s.Sync(context.Background(), unreachable, cacheRoot)
	require.ErrorIs(t, err, ErrRemoteUnreachable)

	repo, err := git.PlainOpen(ref.Path(cacheRoot))
	require.NoError(t, err)

	origin, err := repo.Remote("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{remote.path}, origin.Config().URLs)
}

func TestSynchronizer_Timeout(t *testing.T) {
	stalled := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(stalled.Close)

	s, err := NewSynchronizer(Config{Timeout: 200 * time.Millisecond}, validator.New(), zaptest.NewLogger(t))
	require.NoError(t, err)

	cacheRoot := t.TempDir()
	ref := Reference{URL: stalled.URL + "/repo.git", Branch: "main", Name: "proj"}

	_, err = s.Sync(context.Background(), ref, cacheRoot)
	require.ErrorIs(t, err, ErrTimeout)

	state, err := s.Probe(ref, cacheRoot)
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)
}

func TestSynchronizer_SwitchesBranch(t *testing.T) {
	remote := newUpstream(t)
	remote.commit("c1", map[string]string{"file.txt": "main"})
	remote.branch("develop")
	dev := remote.commit("c2", map[string]string{"file.txt": "develop"})

	cacheRoot := t.TempDir()
	s := newTestSynchronizer(t)

	_, err := s.Sync(context.Background(), Reference{URL: remote.path, Branch: "main", Name: "proj"}, cacheRoot)
	require.NoError(t, err)

	result, err := s.Sync(context.Background(), Reference{URL: remote.path, Branch: "develop", Name: "proj"}, cacheRoot)
	require.NoError(t, err)

	assert.Equal(t, dev.String(), result.Commit)
	assert.Equal(t, "develop", readFile(t, filepath.Join(result.Path, "file.txt")))

	repo, err := git.PlainOpen(result.Path)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewBranchReferenceName("develop"), head.Name())
}

func TestSynchronizer_InvalidReference(t *testing.T) {
	tests := []struct {
		name string
		ref  Reference
	}{
		{"empty url", Reference{Branch: "main", Name: "proj"}},
		{"empty branch", Reference{URL: "https://example.invalid/r.git", Name: "proj"}},
		{"empty name", Reference{URL: "https://example.invalid/r.git", Branch: "main"}},
		{"parent traversal", Reference{URL: "https://example.invalid/r.git", Branch: "main", Name: ".."}},
		{"nested traversal", Reference{URL: "https://example.invalid/r.git", Branch: "main", Name: "../etc"}},
		{"separator", Reference{URL: "https://example.invalid/r.git", Branch: "main", Name: "a/b"}},
	}

	s := newTestSynchronizer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cacheRoot := t.TempDir()

			_, err := s.Sync(context.Background(), tt.ref, cacheRoot)
			require.ErrorIs(t, err, ErrInvalidReference)

			entries, err := os.ReadDir(cacheRoot)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSynchronizer_Cancelled(t *testing.T) {
	remote := newUpstream(t)
	remote.commit("c1", map[string]string{"file.txt": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ref := Reference{URL: remote.path, Branch: "main", Name: "proj"}

	_, err := newTestSynchronizer(t).Sync(ctx, ref, t.TempDir())
	require.ErrorIs(t, err, ErrOperationCancelled)
}
