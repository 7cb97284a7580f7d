package internal

import (
	"context"

	"github.com/apiarycd/repocache/internal/bootstrap"
	"github.com/apiarycd/repocache/internal/config"
	"github.com/apiarycd/repocache/internal/container"
	"github.com/apiarycd/repocache/internal/environment"
	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/history"
	"github.com/apiarycd/repocache/internal/preflight"
	"github.com/apiarycd/repocache/internal/workspace"
	"github.com/apiarycd/repocache/pkg/badgerfx"
	"github.com/apiarycd/repocache/pkg/dockerfx"
	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		dockerfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		container.Module(),
		//
		// BUSINESS MODULES
		preflight.Module(),
		environment.Module(),
		workspace.Module(),
		git.Module(),
		history.Module(),
		bootstrap.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(runOnce),
	).Run()
}

// runOnce starts a single bootstrap run and shuts the application down with
// the run's exit code once it finishes.
func runOnce(lc fx.Lifecycle, runner *bootstrap.Runner, shutdowner fx.Shutdowner, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("🚀 repocache starting up")

			go func() {
				defer close(done)

				_, err := runner.Run(ctx)
				code := bootstrap.ExitCode(err)
				if err != nil {
					logger.Error("bootstrap failed", zap.Error(err), zap.Int("exit_code", code))
				}

				if shutdownErr := shutdowner.Shutdown(fx.ExitCode(code)); shutdownErr != nil {
					logger.Error("failed to shut down", zap.Error(shutdownErr))
				}
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}

			logger.Info("🛑 repocache shutting down")
			return nil
		},
	})
}
