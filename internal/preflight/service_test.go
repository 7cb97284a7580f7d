package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/apiarycd/repocache/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRuntime struct {
	err   error
	calls int
}

func (f *fakeRuntime) Ping(_ context.Context) (container.Info, error) {
	f.calls++
	return container.Info{APIVersion: "1.52", OSType: "linux"}, f.err
}

func newTestService(t *testing.T, cfg Config, runtime Runtime, installed map[string]bool, versionOutput string) *Service {
	t.Helper()

	s, err := NewService(cfg, runtime, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.lookPath = func(file string) (string, error) {
		if installed[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	s.version = func(_ context.Context, command string) (string, error) {
		if !installed[command] {
			return "", errors.New("executable file not found in $PATH")
		}
		return versionOutput, nil
	}

	return s
}

func TestService_Check(t *testing.T) {
	base := Config{
		Interpreter:       "python3",
		VersionConstraint: ">= 3.8, < 3.13",
		Tools:             []string{"cargo"},
	}

	tests := []struct {
		name      string
		config    Config
		installed map[string]bool
		output    string
		wantErr   error
	}{
		{
			name:      "supported",
			config:    base,
			installed: map[string]bool{"python3": true, "cargo": true},
			output:    "Python 3.12.4\n",
		},
		{
			name:      "lowest supported",
			config:    base,
			installed: map[string]bool{"python3": true, "cargo": true},
			output:    "Python 3.8.0",
		},
		{
			name:      "too new",
			config:    base,
			installed: map[string]bool{"python3": true, "cargo": true},
			output:    "Python 3.13.1",
			wantErr:   ErrInterpreterVersion,
		},
		{
			name:      "unparseable version",
			config:    base,
			installed: map[string]bool{"python3": true, "cargo": true},
			output:    "Python unknown",
			wantErr:   ErrInterpreterVersion,
		},
		{
			name:      "interpreter missing",
			config:    base,
			installed: map[string]bool{"cargo": true},
			wantErr:   ErrInterpreterMissing,
		},
		{
			name:      "tool missing",
			config:    base,
			installed: map[string]bool{"python3": true},
			output:    "Python 3.11.9",
			wantErr:   ErrToolMissing,
		},
		{
			name:   "nothing configured",
			config: Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, tt.config, &fakeRuntime{}, tt.installed, tt.output)

			err := s.Check(context.Background())
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrPrecondition)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_CheckReportsAllMissingTools(t *testing.T) {
	s := newTestService(t,
		Config{Tools: []string{"cargo", "make", "uv"}},
		&fakeRuntime{},
		map[string]bool{"make": true},
		"",
	)

	err := s.Check(context.Background())
	require.ErrorIs(t, err, ErrToolMissing)
	assert.Contains(t, err.Error(), "cargo, uv")
}

func TestService_CheckRuntime(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		runtime := &fakeRuntime{err: errors.New("connection refused")}
		s := newTestService(t, Config{}, runtime, nil, "")

		require.NoError(t, s.Check(context.Background()))
		assert.Zero(t, runtime.calls)
	})

	t.Run("unreachable", func(t *testing.T) {
		runtime := &fakeRuntime{err: errors.New("connection refused")}
		s := newTestService(t, Config{Docker: true}, runtime, nil, "")

		err := s.Check(context.Background())
		require.ErrorIs(t, err, ErrPrecondition)
		require.ErrorIs(t, err, ErrContainerRuntime)
		assert.Equal(t, 1, runtime.calls)
	})

	t.Run("reachable", func(t *testing.T) {
		s := newTestService(t, Config{Docker: true}, &fakeRuntime{}, nil, "")
		require.NoError(t, s.Check(context.Background()))
	})
}

func TestNewService_InvalidConstraint(t *testing.T) {
	_, err := NewService(Config{VersionConstraint: "not a constraint"}, &fakeRuntime{}, zaptest.NewLogger(t))
	require.ErrorIs(t, err, ErrInvalidConstraint)
}
