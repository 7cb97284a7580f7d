package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apiarycd/repocache/internal/storage"
	"github.com/apiarycd/repocache/pkg/badgerfx"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type Repository struct {
	db      *badger.DB
	records *badgerfx.Repository[*recordModel]
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db:      db,
		records: badgerfx.NewRepository(func() *recordModel { return &recordModel{} }),
	}
}

// Get retrieves the record of a cache name.
func (r *Repository) Get(_ context.Context, name string) (*Record, error) {
	var record *recordModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.records.Read(txn, prefixByName+name)
		if err == nil {
			record = found
		}

		return err
	})

	if errors.Is(err, badgerfx.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache record: %w", err)
	}

	return newRecord(record), nil
}

// Save creates or replaces the record of record.Name. ID and CreatedAt of
// an existing record are preserved.
func (r *Repository) Save(_ context.Context, record *Record) error {
	now := time.Now()

	err := r.db.Update(func(txn *badger.Txn) error {
		model := newRecordModel(record)

		old, err := r.records.Read(txn, model.StorageKey())
		switch {
		case err == nil:
			model.ID = old.ID
			model.CreatedAt = old.CreatedAt
			model.UpdatedAt = now
		case errors.Is(err, badgerfx.ErrNotFound):
			model.BaseEntity = storage.NewBaseEntity(now)
		default:
			return fmt.Errorf("failed to read cache record: %w", err)
		}

		if writeErr := r.records.Write(txn, model); writeErr != nil {
			return writeErr
		}

		record.ID = model.ID
		record.CreatedAt = model.CreatedAt
		record.UpdatedAt = model.UpdatedAt

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to save cache record: %w", err)
	}

	return nil
}

// List retrieves all records ordered by cache name.
func (r *Repository) List(_ context.Context) ([]Record, error) {
	var models []*recordModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.records.List(txn, prefixByName, badger.DefaultIteratorOptions)
		if err == nil {
			models = found
		}

		return err
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list cache records: %w", err)
	}

	return lo.Map(models, func(m *recordModel, _ int) Record {
		return *newRecord(m)
	}), nil
}
