package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/apiarycd/repocache/internal/container"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Runtime is the container daemon the downstream step talks to.
type Runtime interface {
	Ping(ctx context.Context) (container.Info, error)
}

// Service checks the host before any setup or cache work begins.
type Service struct {
	config     Config
	constraint *semver.Constraints
	runtime    Runtime

	lookPath func(file string) (string, error)
	version  func(ctx context.Context, command string) (string, error)

	logger *zap.Logger
}

func NewService(config Config, runtime Runtime, logger *zap.Logger) (*Service, error) {
	var constraint *semver.Constraints
	if config.VersionConstraint != "" {
		c, err := semver.NewConstraint(config.VersionConstraint)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidConstraint, config.VersionConstraint, err)
		}
		constraint = c
	}

	return &Service{
		config:     config,
		constraint: constraint,
		runtime:    runtime,
		lookPath:   exec.LookPath,
		version:    commandVersion,
		logger:     logger,
	}, nil
}

// Check runs every configured check and stops at the first failure. All
// failures wrap ErrPrecondition.
func (s *Service) Check(ctx context.Context) error {
	checks := []func(context.Context) error{
		s.checkInterpreter,
		s.checkTools,
		s.checkRuntime,
	}

	for _, check := range checks {
		if err := check(ctx); err != nil {
			s.logger.Error("preflight check failed", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrPrecondition, err)
		}
	}

	s.logger.Info("preflight checks passed")
	return nil
}

func (s *Service) checkInterpreter(ctx context.Context) error {
	if s.config.Interpreter == "" {
		return nil
	}

	output, err := s.version(ctx, s.config.Interpreter)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInterpreterMissing, s.config.Interpreter, err)
	}

	version, err := parseVersion(output)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInterpreterVersion, s.config.Interpreter, err)
	}

	if s.constraint != nil && !s.constraint.Check(version) {
		return fmt.Errorf("%w: %s %s detected, %s required",
			ErrInterpreterVersion, s.config.Interpreter, version, s.config.VersionConstraint)
	}

	s.logger.Info("interpreter version supported",
		zap.String("interpreter", s.config.Interpreter),
		zap.String("version", version.String()))

	return nil
}

func (s *Service) checkTools(_ context.Context) error {
	missing := lo.Filter(s.config.Tools, func(tool string, _ int) bool {
		_, err := s.lookPath(tool)
		return err != nil
	})

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrToolMissing, strings.Join(missing, ", "))
	}

	if len(s.config.Tools) > 0 {
		s.logger.Info("required tools present", zap.Strings("tools", s.config.Tools))
	}

	return nil
}

func (s *Service) checkRuntime(ctx context.Context) error {
	if !s.config.Docker {
		return nil
	}

	info, err := s.runtime.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContainerRuntime, err)
	}

	s.logger.Info("container daemon reachable",
		zap.String("api_version", info.APIVersion),
		zap.String("os_type", info.OSType))

	return nil
}

// parseVersion extracts the first dotted version number from output such
// as "Python 3.12.1".
func parseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return nil, fmt.Errorf("no version in %q", strings.TrimSpace(output))
	}

	return semver.NewVersion(match)
}

func commandVersion(ctx context.Context, command string) (string, error) {
	output, err := exec.CommandContext(ctx, command, "--version").CombinedOutput()
	if err != nil {
		return "", err
	}

	return string(output), nil
}
