package config

import (
	"errors"
	"fmt"
	"strings"
)

const maxPositionalArgs = 3

var ErrTooManyArgs = errors.New("too many arguments")

// applyArgs overrides the repository reference with positional arguments
// in the order: remote URL, branch, cache name. Empty arguments keep the
// configured value.
func applyArgs(cfg *Config, args []string) error {
	positional := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		positional = append(positional, arg)
	}

	if len(positional) > maxPositionalArgs {
		return fmt.Errorf(
			"%w: expected at most %d ([remote-url] [branch] [cache-name]), got %d",
			ErrTooManyArgs, maxPositionalArgs, len(positional),
		)
	}

	targets := []*string{&cfg.Repository.URL, &cfg.Repository.Branch, &cfg.Repository.Name}
	for i, value := range positional {
		if value == "" {
			continue
		}
		*targets[i] = value
	}

	return nil
}
