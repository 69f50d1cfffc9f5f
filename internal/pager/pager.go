// Package pager sends rendered output through the user's pager.
package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"pkt.systems/mdless/internal/command"
	"pkt.systems/mdless/internal/logger"
)

// ErrNoPager reports that no candidate pager could be found.
var ErrNoPager = errors.New("no pager available")

// Pager resolves and runs a pager program.
type Pager struct {
	Runner command.Runner
	Getenv func(string) string
	Stdout io.Writer
	Stderr io.Writer
}

func (p Pager) runner() command.Runner {
	if p.Runner == nil {
		return command.Exec{}
	}
	return p.Runner
}

func (p Pager) getenv(key string) string {
	if p.Getenv == nil {
		return os.Getenv(key)
	}
	return p.Getenv(key)
}

func (p Pager) gitPager(ctx context.Context) string {
	r := p.runner()
	if !r.Available("git") {
		return ""
	}
	res := r.Run(ctx, "git", []string{"config", "--get-all", "core.pager"}, nil)
	if !res.OK() {
		return ""
	}
	fields := strings.Fields(string(res.Output))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Candidates lists pager commands in preference order.
func (p Pager) Candidates(ctx context.Context) []string {
	return []string{
		p.getenv("GIT_PAGER"),
		p.getenv("PAGER"),
		p.gitPager(ctx),
		"less",
		"more",
		"cat",
		"pager",
	}
}

// Which returns the argv of the first usable pager. Commands containing a
// pipe run through sh; less and more get -r to pass escapes through.
func (p Pager) Which(ctx context.Context) ([]string, error) {
	for _, candidate := range p.Candidates(ctx) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, "|") {
			return []string{"sh", "-c", candidate}, nil
		}
		argv, err := shellquote.Split(candidate)
		if err != nil || len(argv) == 0 {
			logger.Warn("unparseable pager", "pager", candidate, "err", err)
			continue
		}
		if !p.runner().Available(argv[0]) {
			continue
		}
		if len(argv) == 1 && (argv[0] == "less" || argv[0] == "more") {
			argv = append(argv, "-r")
		}
		return argv, nil
	}
	return nil, ErrNoPager
}

// Page writes text to the pager's stdin and waits for it to exit.
func (p Pager) Page(ctx context.Context, text string) error {
	argv, err := p.Which(ctx)
	if err != nil {
		return err
	}
	logger.Debug("paging", "argv", argv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = p.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = p.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pager %s: %w", argv[0], err)
	}
	return nil
}
