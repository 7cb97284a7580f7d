package bootstrap

import (
	"github.com/apiarycd/repocache/internal/environment"
	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/history"
	"github.com/apiarycd/repocache/internal/preflight"
	"github.com/apiarycd/repocache/internal/workspace"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"bootstrap",
		logger.WithNamedLogger("bootstrap"),
		fx.Provide(
			func(s *preflight.Service) Preflight { return s },
			func(s *environment.Service) Environment { return s },
			func(s *workspace.Service) Workspace { return s },
			func(s *git.Synchronizer) Synchronizer { return s },
			func(s *history.Service) History { return s },
			fx.Private,
		),
		fx.Provide(NewRunner),
	)
}
