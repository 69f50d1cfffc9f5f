// Package highlight turns fenced code into terminal-colored text. A
// Highlighter either succeeds or reports an error; callers fall back to the
// unstyled code themselves.
package highlight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"pkt.systems/mdless/internal/command"
)

// DefaultStyle is the color scheme used when none is configured.
const DefaultStyle = "monokai"

// ErrNoLexer reports that no lexer matched the language or the source.
var ErrNoLexer = errors.New("no lexer for source")

// Highlighter colors source code. lang may be empty.
type Highlighter interface {
	Highlight(ctx context.Context, code, lang string) (string, error)
}

// Pygments shells out to pygmentize.
type Pygments struct {
	Runner command.Runner
	Style  string
	// Program overrides the executable name.
	Program string
}

func (p Pygments) program() string {
	if p.Program != "" {
		return p.Program
	}
	return "pygmentize"
}

// Args returns the argv for lang; an empty lang asks pygmentize to guess.
func (p Pygments) Args(lang string) []string {
	style := p.Style
	if style == "" {
		style = DefaultStyle
	}
	args := []string{"-f", "terminal256", "-O", "style=" + style}
	if lang = strings.TrimSpace(lang); lang != "" {
		return append(args, "-l", lang)
	}
	return append(args, "-g")
}

// Highlight runs pygmentize with code on stdin.
func (p Pygments) Highlight(ctx context.Context, code, lang string) (string, error) {
	runner := p.Runner
	if runner == nil {
		runner = command.Exec{}
	}
	res := runner.Run(ctx, p.program(), p.Args(lang), []byte(code))
	if !res.OK() {
		return "", res.Err(p.program())
	}
	return strings.TrimRight(string(res.Output), "\n"), nil
}

// Chroma highlights in process.
type Chroma struct {
	Style string
}

// Highlight picks a lexer by name, then by content analysis.
func (c Chroma) Highlight(_ context.Context, code, lang string) (string, error) {
	lexer := lookupLexer(code, lang)
	if lexer == nil {
		return "", fmt.Errorf("%q: %w", lang, ErrNoLexer)
	}
	lexer = chroma.Coalesce(lexer)

	styleName := c.Style
	if styleName == "" {
		styleName = DefaultStyle
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func lookupLexer(code, lang string) chroma.Lexer {
	if lang = strings.TrimSpace(lang); lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	return lexers.Analyse(code)
}

// Chain tries each highlighter in order and returns the first success.
type Chain []Highlighter

// Highlight returns the last error when every highlighter fails.
func (c Chain) Highlight(ctx context.Context, code, lang string) (string, error) {
	err := ErrNoLexer
	for _, h := range c {
		out, herr := h.Highlight(ctx, code, lang)
		if herr == nil {
			return out, nil
		}
		err = herr
	}
	return "", err
}
