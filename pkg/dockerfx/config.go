package dockerfx

import (
	"time"
)

// Config holds the configuration for the Docker client.
//
// Empty Host and APIVersion fall back to the DOCKER_HOST and
// DOCKER_API_VERSION environment, as the docker CLI does.
type Config struct {
	// Host is a daemon address such as "unix:///var/run/docker.sock" or
	// "tcp://127.0.0.1:2376".
	Host string

	// APIVersion pins the API version. Empty negotiates with the daemon.
	APIVersion string

	// Timeout for Docker API requests. Defaults to 30 seconds if zero.
	Timeout time.Duration

	// TLSEnabled enables TLS for the connection using TLSConfig.
	TLSEnabled bool
	TLSConfig  TLSConfig
}

// TLSConfig holds TLS configuration for Docker client.
type TLSConfig struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// DefaultConfig returns a default configuration for the Docker client.
func DefaultConfig() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		Timeout: 30 * time.Second,
	}
}
