package environment

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

type runFunc func(ctx context.Context, dir, name string, args ...string) error

// Service prepares the local development environment by running the
// configured setup steps, such as creating a virtual environment and
// installing dependencies.
type Service struct {
	config Config
	run    runFunc

	logger *zap.Logger
}

func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		run:    runCommand,
		logger: logger,
	}
}

// Setup runs every step in order and stops at the first failure.
func (s *Service) Setup(ctx context.Context) error {
	for i, step := range s.config.Steps {
		fields := strings.Fields(step)
		if len(fields) == 0 {
			return fmt.Errorf("%w: step %d is empty", ErrInvalidStep, i+1)
		}

		s.logger.Info("running setup step",
			zap.Int("step", i+1),
			zap.Int("total", len(s.config.Steps)),
			zap.String("command", step))

		start := time.Now()
		if err := s.run(ctx, s.config.WorkDir, fields[0], fields[1:]...); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrStepFailed, step, err)
		}

		s.logger.Debug("setup step finished",
			zap.String("command", step),
			zap.Duration("duration", time.Since(start)))
	}

	return nil
}

func runCommand(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
