package environment

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"environment",
		logger.WithNamedLogger("environment"),
		fx.Provide(NewService),
	)
}
