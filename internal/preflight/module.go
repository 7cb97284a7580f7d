package preflight

import (
	"github.com/apiarycd/repocache/internal/container"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"preflight",
		logger.WithNamedLogger("preflight"),
		fx.Provide(func(d *container.Daemon) Runtime { return d }, fx.Private),
		fx.Provide(NewService),
	)
}
