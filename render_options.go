package mdless

import (
	"fmt"
	"strings"

	"pkt.systems/mdless/internal/command"
	"pkt.systems/mdless/internal/highlight"
)

// RenderOption configures rendering behavior.
type RenderOption func(*renderConfig)

// LinkStyle selects how links are placed in the output.
type LinkStyle int

const (
	// LinkInline keeps [text](url) where the link appears.
	LinkInline LinkStyle = iota
	// LinkReference numbers links and lists their targets at the end.
	LinkReference
	// LinkParagraph numbers links and lists their targets after each
	// paragraph.
	LinkParagraph
)

func (s LinkStyle) String() string {
	switch s {
	case LinkReference:
		return "reference"
	case LinkParagraph:
		return "paragraph"
	default:
		return "inline"
	}
}

// ParseLinkStyle accepts inline, reference or paragraph, or any prefix of
// them.
func ParseLinkStyle(s string) (LinkStyle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LinkInline, nil
	}
	for _, style := range []LinkStyle{LinkInline, LinkReference, LinkParagraph} {
		if strings.HasPrefix(style.String(), s) {
			return style, nil
		}
	}
	return LinkInline, fmt.Errorf("%w: link style %q", ErrConfiguration, s)
}

// TaskPaperMode controls TaskPaper detection.
type TaskPaperMode int

const (
	TaskPaperAuto TaskPaperMode = iota
	TaskPaperOn
	TaskPaperOff
)

type renderConfig struct {
	color              bool
	osc8               bool
	itermMarks         bool
	links              LinkStyle
	inlineFootnotes    bool
	localImages        bool
	remoteImages       bool
	sections           []string
	wikiLinks          bool
	atTags             bool
	taskpaper          TaskPaperMode
	syntaxHighlight    bool
	highlighter        highlight.Highlighter
	runner             command.Runner
	baseDir            string
	preserveLinebreaks bool
}

func defaultConfig() renderConfig {
	return renderConfig{
		color:           true,
		syntaxHighlight: true,
	}
}

func (cfg *renderConfig) commandRunner() command.Runner {
	if cfg.runner == nil {
		return command.Exec{}
	}
	return cfg.runner
}

func (cfg *renderConfig) codeHighlighter(style string) highlight.Highlighter {
	if cfg.highlighter != nil {
		return cfg.highlighter
	}
	return highlight.Chain{
		highlight.Pygments{Runner: cfg.commandRunner(), Style: style},
		highlight.Chroma{Style: style},
	}
}

// WithColor enables or disables escape sequences in the output.
func WithColor(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.color = enabled
	}
}

// WithOSC8 enables or disables OSC 8 hyperlinks.
func WithOSC8(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.osc8 = enabled
	}
}

// WithITermMarks emits iTerm2 SetMark escapes before h1-h3.
func WithITermMarks(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.itermMarks = enabled
	}
}

// WithLinkStyle sets link placement.
func WithLinkStyle(style LinkStyle) RenderOption {
	return func(cfg *renderConfig) {
		cfg.links = style
	}
}

// WithInlineFootnotes places footnote definitions after the line that
// references them instead of at the end.
func WithInlineFootnotes(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.inlineFootnotes = enabled
	}
}

// WithImages enables inline image display for local and remote sources.
func WithImages(local, remote bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.localImages = local || remote
		cfg.remoteImages = remote
	}
}

// WithSections limits output to the given sections. Each entry is a 1-based
// header index or a title pattern.
func WithSections(sections ...string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.sections = append(cfg.sections[:0], sections...)
	}
}

// WithWikiLinks highlights [[wiki links]].
func WithWikiLinks(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.wikiLinks = enabled
	}
}

// WithAtTags highlights @tags and @tag(values).
func WithAtTags(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.atTags = enabled
	}
}

// WithTaskPaper sets TaskPaper detection.
func WithTaskPaper(mode TaskPaperMode) RenderOption {
	return func(cfg *renderConfig) {
		cfg.taskpaper = mode
	}
}

// WithSyntaxHighlight enables highlighting of fenced code blocks.
func WithSyntaxHighlight(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.syntaxHighlight = enabled
	}
}

// WithHighlighter replaces the default pygmentize-then-chroma chain.
func WithHighlighter(h highlight.Highlighter) RenderOption {
	return func(cfg *renderConfig) {
		cfg.highlighter = h
	}
}

// WithRunner sets the subprocess runner used for highlighters and image
// viewers.
func WithRunner(r command.Runner) RenderOption {
	return func(cfg *renderConfig) {
		cfg.runner = r
	}
}

// WithBaseDir resolves relative image paths against dir.
func WithBaseDir(dir string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.baseDir = dir
	}
}

// WithPreserveLinebreaks keeps soft line breaks inside paragraphs.
func WithPreserveLinebreaks(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.preserveLinebreaks = enabled
	}
}
