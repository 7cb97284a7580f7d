package history

import (
	"time"

	"github.com/apiarycd/repocache/internal/git"
	"github.com/google/uuid"
)

// Record is the last known state of one cache name.
type Record struct {
	ID   uuid.UUID
	Name string // Cache name

	URL    string // Remote URL of the last sync attempt
	Branch string // Branch of the last sync attempt
	Path   string // Cache directory

	State      git.State
	Commit     string     // Commit of the last successful sync
	LastError  string     // Error of the last failed sync
	LastSyncAt *time.Time // Last successful sync

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interrupted reports whether the last run stopped during a clone or fetch.
func (r *Record) Interrupted() bool {
	return r.State.InFlight()
}
