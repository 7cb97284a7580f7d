package git

import (
	"fmt"

	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"
)

const defaultSSHUser = "git"

// newAuth builds the transport auth method from the config. SSH key auth
// takes precedence over HTTPS token auth; nil means anonymous access.
func newAuth(cfg AuthConfig) (transport.AuthMethod, error) {
	if cfg.SSH.PrivateKey != "" {
		user := cfg.SSH.User
		if user == "" {
			user = defaultSSHUser
		}

		keys, err := ssh.NewPublicKeysFromFile(user, cfg.SSH.PrivateKey, cfg.SSH.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load SSH key: %w", ErrAuthConfig, err)
		}

		return keys, nil
	}

	if cfg.HTTPS.Token != "" {
		username := cfg.HTTPS.Username
		if username == "" {
			// any non-empty username is accepted by token based hosts
			username = "x-access-token"
		}

		return &http.BasicAuth{
			Username: username,
			Password: cfg.HTTPS.Token,
		}, nil
	}

	return nil, nil //nolint:nilnil // anonymous access
}
