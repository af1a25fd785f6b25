package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/bnema/opq/internal/domain"
	"github.com/bnema/opq/internal/ports"
)

type Runner struct {
	path    string
	timeout time.Duration
	exec    execFunc
}

type execFunc func(cmd *exec.Cmd) error

var _ ports.CommandRunner = (*Runner)(nil)

// DefaultExecutable is the tool name looked up on PATH when no path is configured.
func DefaultExecutable() string {
	if runtime.GOOS == "windows" {
		return "op.exe"
	}
	return "op"
}

// NewRunner resolves the executable once. A zero timeout waits for the tool
// indefinitely.
func NewRunner(path string, timeout time.Duration) (*Runner, error) {
	if path == "" {
		path = DefaultExecutable()
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, &domain.SpawnError{Path: path, Err: err}
	}

	return &Runner{path: resolved, timeout: timeout, exec: (*exec.Cmd).Run}, nil
}

func (r *Runner) Path() string {
	return r.path
}

// Run spawns the tool once and buffers both streams to completion. The exit
// status is deliberately ignored: the tool reports failures in its output.
func (r *Runner) Run(ctx context.Context, input string, args ...string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := r.exec(cmd)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", "", fmt.Errorf("run %s %s: %w", r.path, subcommand(args), ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", "", &domain.SpawnError{Path: r.path, Err: err}
		}
	}

	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), nil
}

func subcommand(args []string) string {
	if len(args) >= 2 {
		return args[0] + " " + args[1]
	}
	return strings.Join(args, " ")
}
