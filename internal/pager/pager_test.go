package pager

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/mdless/internal/command"
)

type fakeRunner struct {
	installed map[string]bool
	gitPager  string
}

func (f fakeRunner) Available(name string) bool { return f.installed[name] }

func (f fakeRunner) Run(_ context.Context, name string, _ []string, _ []byte) command.Result {
	if name == "git" && f.gitPager != "" {
		return command.Succeeded([]byte(f.gitPager + "\n"))
	}
	return command.Result{Status: command.Failed, Code: 1}
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestWhich(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		vars   map[string]string
		runner fakeRunner
		want   []string
	}{
		{
			name:   "git pager env wins",
			vars:   map[string]string{"GIT_PAGER": "most -s", "PAGER": "less"},
			runner: fakeRunner{installed: map[string]bool{"most": true, "less": true}},
			want:   []string{"most", "-s"},
		},
		{
			name:   "pipeline runs through sh",
			vars:   map[string]string{"PAGER": "fold | less"},
			runner: fakeRunner{installed: map[string]bool{}},
			want:   []string{"sh", "-c", "fold | less"},
		},
		{
			name:   "git config",
			runner: fakeRunner{installed: map[string]bool{"git": true, "delta": true, "less": true}, gitPager: "delta"},
			want:   []string{"delta"},
		},
		{
			name:   "missing env pager skipped",
			vars:   map[string]string{"PAGER": "nonexistent"},
			runner: fakeRunner{installed: map[string]bool{"less": true}},
			want:   []string{"less", "-r"},
		},
		{
			name:   "more gets raw flag",
			runner: fakeRunner{installed: map[string]bool{"more": true, "cat": true}},
			want:   []string{"more", "-r"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pager{Runner: tt.runner, Getenv: env(tt.vars)}
			got, err := p.Which(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWhichNone(t *testing.T) {
	p := Pager{Runner: fakeRunner{}, Getenv: env(nil)}
	_, err := p.Which(context.Background())
	assert.True(t, errors.Is(err, ErrNoPager))
}

func TestPageWritesBuffer(t *testing.T) {
	if !(command.Exec{}).Available("cat") {
		t.Skip("cat not available")
	}
	var out bytes.Buffer
	p := Pager{Getenv: env(map[string]string{"PAGER": "cat"}), Stdout: &out}
	require.NoError(t, p.Page(context.Background(), "hello\nworld\n"))
	assert.Equal(t, "hello\nworld\n", out.String())
}
