package mocks

import (
	"context"

	"github.com/rpggio/projtrack/internal/sysexec"
	"github.com/stretchr/testify/mock"
)

// Runner is a mock for sysexec.Runner.
type Runner struct {
	mock.Mock
}

func (m *Runner) Run(ctx context.Context, cmd sysexec.Command) ([]byte, error) {
	args := m.Called(ctx, cmd)
	if out, ok := args.Get(0).([]byte); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Runner) LookPath(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

// Named matches a command by executable name and first argument.
func Named(name, first string) any {
	return mock.MatchedBy(func(cmd sysexec.Command) bool {
		if cmd.Name != name {
			return false
		}
		return first == "" || (len(cmd.Args) > 0 && cmd.Args[0] == first)
	})
}
