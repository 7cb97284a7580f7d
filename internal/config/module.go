package config

import (
	"github.com/apiarycd/repocache/internal/bootstrap"
	"github.com/apiarycd/repocache/internal/environment"
	"github.com/apiarycd/repocache/internal/git"
	"github.com/apiarycd/repocache/internal/preflight"
	"github.com/apiarycd/repocache/internal/workspace"
	"github.com/apiarycd/repocache/pkg/badgerfx"
	"github.com/apiarycd/repocache/pkg/dockerfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir: cfg.Storage.DataDir,
			}
		}),
		fx.Provide(func(cfg Config) dockerfx.Config {
			return dockerfx.Config{
				Host:       cfg.Docker.Host,
				APIVersion: cfg.Docker.APIVersion,
				Timeout:    cfg.Docker.Timeout,
				TLSEnabled: cfg.Docker.TLSEnabled,
				TLSConfig: dockerfx.TLSConfig{
					CAFile:   cfg.Docker.CAFile,
					CertFile: cfg.Docker.CertFile,
					KeyFile:  cfg.Docker.KeyFile,
				},
			}
		}),
		fx.Provide(func(cfg Config) preflight.Config {
			return preflight.Config{
				Interpreter:       cfg.Preflight.Interpreter,
				VersionConstraint: cfg.Preflight.VersionConstraint,
				Tools:             cfg.Preflight.Tools,
				Docker:            cfg.Preflight.Docker,
			}
		}),
		fx.Provide(func(cfg Config) environment.Config {
			return environment.Config{
				Steps:   cfg.Setup.Steps,
				WorkDir: cfg.Setup.WorkDir,
			}
		}),
		fx.Provide(func(cfg Config) workspace.Config {
			return workspace.Config{
				Root: cfg.Paths.Root,
			}
		}),
		fx.Provide(func(cfg Config) git.Config {
			return git.Config{
				Timeout:  cfg.Git.Timeout,
				Depth:    cfg.Git.Depth,
				Progress: cfg.Git.Progress,
				Auth: git.AuthConfig{
					SSH: git.SSHAuthConfig{
						User:       cfg.Git.Auth.SSH.User,
						PrivateKey: cfg.Git.Auth.SSH.PrivateKey,
						Passphrase: cfg.Git.Auth.SSH.Passphrase,
					},
					HTTPS: git.HTTPSAuthConfig{
						Username: cfg.Git.Auth.HTTPS.Username,
						Token:    cfg.Git.Auth.HTTPS.Token,
					},
				},
			}
		}),
		fx.Provide(func(cfg Config) bootstrap.Config {
			return bootstrap.Config{
				Repository: git.Reference{
					URL:    cfg.Repository.URL,
					Branch: cfg.Repository.Branch,
					Name:   cfg.Repository.Name,
				},
				LockTimeout: cfg.Git.LockTimeout,
			}
		}),
	)
}
