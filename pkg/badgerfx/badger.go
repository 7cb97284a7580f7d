package badgerfx

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

const SeekEnd = byte(0xFF)

// New opens the database described by config. A nil logger disables badger's
// own logging.
func New(config Config, logger badger.Logger) (*badger.DB, error) {
	if !config.InMemory {
		if err := os.MkdirAll(config.Dir, 0o755); err != nil { //nolint:mnd // directory permissions
			return nil, fmt.Errorf("failed to create BadgerDB directory: %w", err)
		}
	}

	opts := config.Build().
		WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return db, nil
}
