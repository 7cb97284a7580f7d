package bootstrap

import (
	"time"

	"github.com/apiarycd/repocache/internal/git"
)

type Config struct {
	Repository git.Reference
	// LockTimeout bounds the wait for another run holding the cache lock.
	LockTimeout time.Duration
}
