package git

import "time"

const DefaultDepth = 1

type AuthConfig struct {
	SSH   SSHAuthConfig
	HTTPS HTTPSAuthConfig
}

type SSHAuthConfig struct {
	User       string
	PrivateKey string
	Passphrase string
}

type HTTPSAuthConfig struct {
	Username string
	Token    string
}

type Config struct {
	// Timeout bounds a single clone or fetch. Zero means no timeout.
	Timeout time.Duration
	// Depth of the shallow history. Values below one fall back to DefaultDepth.
	Depth int
	// Progress enables textual transfer progress on stdout.
	Progress bool
	Auth     AuthConfig
}
