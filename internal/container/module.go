package container

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"container",
		logger.WithNamedLogger("container"),
		fx.Provide(NewDaemon),
	)
}
