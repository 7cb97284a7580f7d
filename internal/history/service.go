package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apiarycd/repocache/internal/git"
	"go.uber.org/zap"
)

// Service tracks the sync state machine of each cache name.
type Service struct {
	records *Repository

	logger *zap.Logger
}

func NewService(records *Repository, logger *zap.Logger) *Service {
	return &Service{
		records: records,
		logger:  logger,
	}
}

// Begin marks ref as entering state and returns the record as it was
// before, or nil when the cache name was never synced.
func (s *Service) Begin(ctx context.Context, ref git.Reference, path string, state git.State) (*Record, error) {
	previous, err := s.records.Get(ctx, ref.Name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	record := &Record{}
	if previous != nil {
		copied := *previous
		record = &copied
	}

	record.Name = ref.Name
	record.URL = ref.URL
	record.Branch = ref.Branch
	record.Path = path
	record.State = state

	if saveErr := s.records.Save(ctx, record); saveErr != nil {
		return nil, saveErr
	}

	s.logger.Debug("sync started",
		zap.String("name", ref.Name),
		zap.String("state", string(state)))

	return previous, nil
}

// Complete marks ref as present at result.Commit.
func (s *Service) Complete(ctx context.Context, ref git.Reference, result *git.Result) error {
	now := time.Now()

	record, err := s.current(ctx, ref)
	if err != nil {
		return err
	}

	record.Path = result.Path
	record.State = git.StatePresent
	record.Commit = result.Commit
	record.LastError = ""
	record.LastSyncAt = &now

	if saveErr := s.records.Save(ctx, record); saveErr != nil {
		return saveErr
	}

	s.logger.Debug("sync recorded",
		zap.String("name", ref.Name),
		zap.String("commit", result.Commit))

	return nil
}

// Fail marks ref as failed. The commit of the last successful sync is kept
// because a failed sync leaves the cache content unchanged.
func (s *Service) Fail(ctx context.Context, ref git.Reference, syncErr error) error {
	record, err := s.current(ctx, ref)
	if err != nil {
		return err
	}

	record.State = git.StateFailed
	record.LastError = syncErr.Error()

	if saveErr := s.records.Save(ctx, record); saveErr != nil {
		return saveErr
	}

	s.logger.Debug("sync failure recorded",
		zap.String("name", ref.Name),
		zap.Error(syncErr))

	return nil
}

// List returns all records.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.records.List(ctx)
}

func (s *Service) current(ctx context.Context, ref git.Reference) (*Record, error) {
	record, err := s.records.Get(ctx, ref.Name)
	if errors.Is(err, ErrNotFound) {
		return &Record{Name: ref.Name, URL: ref.URL, Branch: ref.Branch}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache record: %w", err)
	}

	return record, nil
}
