package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Service struct {
	config Config

	logger *zap.Logger
}

func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Prepare creates the layout below the configured root. Existing
// directories are kept as they are.
func (s *Service) Prepare() (Layout, error) {
	root, err := filepath.Abs(s.config.Root)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to resolve workspace root %q: %w", s.config.Root, err)
	}

	layout := newLayout(root)

	for _, dir := range append([]string{layout.Root}, layout.dirs()...) {
		if mkErr := ensureDir(dir); mkErr != nil {
			return Layout{}, mkErr
		}
	}

	s.logger.Info("workspace prepared",
		zap.String("root", layout.Root),
		zap.String("git_cache", layout.GitCache))

	return layout, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %q exists and is not a directory", ErrLayoutConflict, dir)
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to access %q: %w", dir, err)
	}

	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil { //nolint:mnd // directory permissions
		return fmt.Errorf("failed to create %q: %w", dir, mkErr)
	}

	return nil
}
