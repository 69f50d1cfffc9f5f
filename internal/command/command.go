// Package command runs external helper programs (highlighters, image
// viewers) and reports the outcome as a Result instead of an error chain, so
// callers can pick a fallback without inspecting exec internals.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrUnavailable reports that the program could not be found.
	ErrUnavailable = errors.New("command unavailable")
	// ErrFailed reports a non-zero exit or a failure to start.
	ErrFailed = errors.New("command failed")
)

// Status classifies a Result.
type Status int

const (
	Success Status = iota
	Unavailable
	Failed
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one invocation. Output is only meaningful when
// Status is Success; Code is the exit status when Status is Failed.
type Result struct {
	Status Status
	Output []byte
	Code   int
	Stderr string
}

// OK reports whether the command succeeded.
func (r Result) OK() bool { return r.Status == Success }

// Err converts a non-successful Result to an error naming the program.
func (r Result) Err(name string) error {
	switch r.Status {
	case Success:
		return nil
	case Unavailable:
		return fmt.Errorf("%s: %w", name, ErrUnavailable)
	default:
		msg := strings.TrimSpace(r.Stderr)
		if msg == "" {
			return fmt.Errorf("%s: exit %d: %w", name, r.Code, ErrFailed)
		}
		return fmt.Errorf("%s: exit %d: %s: %w", name, r.Code, msg, ErrFailed)
	}
}

// Succeeded wraps output in a successful Result.
func Succeeded(output []byte) Result {
	return Result{Status: Success, Output: output}
}

// Runner executes programs synchronously.
type Runner interface {
	Available(name string) bool
	Run(ctx context.Context, name string, args []string, stdin []byte) Result
}

// Exec runs real programs found on PATH or by explicit path.
type Exec struct {
	// Env, when set, replaces the child environment.
	Env []string
}

// Available reports whether name resolves to an executable.
func (e Exec) Available(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// Run starts name with args, feeds stdin (when non-nil), and waits for it.
func (e Exec) Run(ctx context.Context, name string, args []string, stdin []byte) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	path, err := lookPath(name)
	if err != nil {
		return Result{Status: Unavailable}
	}
	cmd := exec.CommandContext(ctx, path, args...)
	if e.Env != nil {
		cmd.Env = e.Env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return Result{Status: Failed, Code: code, Stderr: stderr.String()}
	}
	return Succeeded(stdout.Bytes())
}

func lookPath(name string) (string, error) {
	if strings.HasPrefix(name, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			name = filepath.Join(home, name[2:])
		}
	}
	return exec.LookPath(name)
}
