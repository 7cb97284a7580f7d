package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
)

type repositoryConfig struct {
	URL    string `koanf:"url"`
	Branch string `koanf:"branch"`
	Name   string `koanf:"name"`
}

type pathsConfig struct {
	Root string `koanf:"root"`
}

type preflightConfig struct {
	Interpreter       string   `koanf:"interpreter"`
	VersionConstraint string   `koanf:"version_constraint"`
	Tools             []string `koanf:"tools"`
	Docker            bool     `koanf:"docker"`
}

type setupConfig struct {
	Steps   []string `koanf:"steps"`
	WorkDir string   `koanf:"work_dir"`
}

type storageConfig struct {
	DataDir string `koanf:"data_dir"`
}

type dockerConfig struct {
	Host       string        `koanf:"host"`
	APIVersion string        `koanf:"api_version"`
	Timeout    time.Duration `koanf:"timeout"`
	TLSEnabled bool          `koanf:"tls_enabled"`
	CAFile     string        `koanf:"ca_file"`
	CertFile   string        `koanf:"cert_file"`
	KeyFile    string        `koanf:"key_file"`
}

type gitAuthConfig struct {
	SSH   gitSSHAuthConfig   `koanf:"ssh"`
	HTTPS gitHTTPSAuthConfig `koanf:"https"`
}

type gitSSHAuthConfig struct {
	User       string `koanf:"user"`
	PrivateKey string `koanf:"private_key"`
	Passphrase string `koanf:"passphrase"`
}

type gitHTTPSAuthConfig struct {
	Username string `koanf:"username"`
	Token    string `koanf:"token"`
}

type gitConfig struct {
	Timeout     time.Duration `koanf:"timeout"`
	Depth       int           `koanf:"depth"`
	Progress    bool          `koanf:"progress"`
	LockTimeout time.Duration `koanf:"lock_timeout"`
	Auth        gitAuthConfig `koanf:"auth"`
}

type Config struct {
	Repository repositoryConfig `koanf:"repository"`
	Paths      pathsConfig      `koanf:"paths"`

	Preflight preflightConfig `koanf:"preflight"`
	Setup     setupConfig     `koanf:"setup"`

	Storage storageConfig `koanf:"storage"`
	Docker  dockerConfig  `koanf:"docker"`
	Git     gitConfig     `koanf:"git"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		Repository: repositoryConfig{
			URL:    "https://github.com/apiarycd/apiarycd.git",
			Branch: "main",
			Name:   "apiarycd",
		},

		Paths: pathsConfig{
			Root: "./sandbox",
		},

		Preflight: preflightConfig{
			Interpreter:       "python3",
			VersionConstraint: ">= 3.8, < 3.13",
			Tools:             []string{"cargo"},
			Docker:            false,
		},

		Setup: setupConfig{
			Steps:   []string{},
			WorkDir: ".",
		},

		Storage: storageConfig{
			DataDir: "./sandbox/state",
		},

		Docker: dockerConfig{
			Host:       "",
			APIVersion: "",
			Timeout:    30 * time.Second,
		},

		Git: gitConfig{
			Timeout:     0,
			Depth:       1,
			Progress:    true,
			LockTimeout: 30 * time.Second,
		},
	}
}

func New() (Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := applyArgs(&cfg, args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
