package bootparam

import (
	"context"
	"os/exec"
)

// Runner executes a program and returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) ([]byte, error)
}

// LookPathFunc resolves a program name to an executable path.
type LookPathFunc func(file string) (string, error)

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run starts the program, waits for it to exit and returns its combined
// output. The process is killed if ctx is done first.
func (ExecRunner) Run(ctx context.Context, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	// Hand the tool a minimal, predictable environment.
	cmd.Env = []string{"LC_ALL=C", "PATH=/usr/sbin:/usr/bin:/sbin:/bin"}
	return cmd.CombinedOutput()
}
