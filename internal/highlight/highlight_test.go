package highlight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/mdless/internal/command"
)

type fakeRunner struct {
	result command.Result
	name   string
	args   []string
	stdin  string
}

func (f *fakeRunner) Available(string) bool { return f.result.Status != command.Unavailable }

func (f *fakeRunner) Run(_ context.Context, name string, args []string, stdin []byte) command.Result {
	f.name, f.args, f.stdin = name, args, string(stdin)
	return f.result
}

func TestPygmentsArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		style string
		lang  string
		want  []string
	}{
		{"language", "", "ruby", []string{"-f", "terminal256", "-O", "style=monokai", "-l", "ruby"}},
		{"guess", "native", "", []string{"-f", "terminal256", "-O", "style=native", "-g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pygments{Style: tt.style}.Args(tt.lang))
		})
	}
}

func TestPygmentsHighlight(t *testing.T) {
	runner := &fakeRunner{result: command.Succeeded([]byte("\x1b[33mputs\x1b[39m\n"))}
	out, err := Pygments{Runner: runner}.Highlight(context.Background(), "puts", "ruby")
	require.NoError(t, err)
	assert.Equal(t, "\x1b[33mputs\x1b[39m", out)
	assert.Equal(t, "pygmentize", runner.name)
	assert.Equal(t, "puts", runner.stdin)
}

func TestPygmentsFailures(t *testing.T) {
	for _, res := range []command.Result{
		{Status: command.Unavailable},
		{Status: command.Failed, Code: 1, Stderr: "no lexer"},
	} {
		_, err := Pygments{Runner: &fakeRunner{result: res}}.Highlight(context.Background(), "x", "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, command.ErrUnavailable) || errors.Is(err, command.ErrFailed))
	}
}

func TestChromaHighlight(t *testing.T) {
	out, err := Chroma{}.Highlight(context.Background(), "package main\n\nfunc main() {}\n", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "package")
}

func TestChainFallsThrough(t *testing.T) {
	failing := Pygments{Runner: &fakeRunner{result: command.Result{Status: command.Unavailable}}}
	out, err := Chain{failing, Chroma{}}.Highlight(context.Background(), "x = 1", "python")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")

	_, err = Chain{failing}.Highlight(context.Background(), "x", "python")
	assert.True(t, errors.Is(err, command.ErrUnavailable))
}
