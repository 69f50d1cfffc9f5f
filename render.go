package mdless

import (
	"context"
	"fmt"
	"io"

	"pkt.systems/mdless/internal/logger"
)

// RenderRequest configures a single render pass.
type RenderRequest struct {
	Context context.Context
	Reader  io.Reader
	Writer  io.Writer
	// Width is the target column count. Zero or less disables wrapping and
	// heading padding.
	Width   int
	Theme   *Theme
	Options []RenderOption
}

// Render reads a whole document from Reader and writes the rendered ANSI
// text to Writer.
func Render(req RenderRequest) error {
	if req.Reader == nil || req.Writer == nil {
		return fmt.Errorf("%w: reader and writer are required", ErrConfiguration)
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	out, err := NewRenderer(req.Theme, req.Width, req.Options...).RenderBytes(req.Context, src)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(req.Writer, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Renderer renders documents with a fixed theme, width and option set. Its
// session is reset at the start of every document, so one Renderer can be
// used for many files in sequence but not concurrently.
type Renderer struct {
	theme   *Theme
	width   int
	cfg     renderConfig
	session *Session
}

// NewRenderer returns a Renderer. A nil theme means DefaultTheme.
func NewRenderer(theme *Theme, width int, opts ...RenderOption) *Renderer {
	if theme == nil {
		theme = DefaultTheme()
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Renderer{theme: theme, width: width, cfg: cfg, session: NewSession()}
}

// Session exposes the state accumulated by the last render.
func (r *Renderer) Session() *Session {
	return r.session
}

// RenderString renders src.
func (r *Renderer) RenderString(ctx context.Context, src string) (string, error) {
	return r.RenderBytes(ctx, []byte(src))
}

// RenderBytes renders src: metadata and section preprocessing, markdown or
// TaskPaper rendering, postprocessing and final layout.
func (r *Renderer) RenderBytes(ctx context.Context, src []byte) (string, error) {
	r.session.Reset()
	if err := ValidateInput(src); err != nil {
		return "", err
	}
	c := newConsole(ctx, r.theme, r.session, &r.cfg, r.width)
	text := Sanitize(src)

	var meta string
	if m, rest, ok := extractMetadata(text); ok {
		logger.Debug("found metadata", "lines", len(m.lines))
		meta = m.render(c)
		text = rest
	}
	text = setextToATX(text)
	text = filterSections(text, r.cfg.sections)

	taskpaper := c.useTaskPaper(text)
	var rendered string
	if taskpaper {
		logger.Debug("rendering as taskpaper")
		rendered = c.highlightTaskPaper(text)
	} else {
		rendered = renderMarkdown(c, []byte(text))
	}

	out, err := c.postprocess(meta+rendered, taskpaper)
	if err != nil {
		return "", err
	}
	return c.finalize(out)
}
