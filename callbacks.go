package mdless

import (
	"context"
	"regexp"
	"strings"

	"pkt.systems/mdless/internal/logger"
	"pkt.systems/mdless/internal/sgr"
	"pkt.systems/mdless/internal/table"
	"pkt.systems/mdless/internal/wrap"
)

// Callbacks receives one call per markdown construct, children first. Each
// method returns the rendered text that replaces the construct in its
// parent.
type Callbacks interface {
	Header(text string, level int) string
	Paragraph(text string) string
	TextBlock(text string) string
	BlockQuote(text string) string
	BlockCode(code, lang string) string
	BlockHTML(html string) string
	HRule() string
	List(contents string, ordered bool) string
	ListItem(text string, ordered bool) string
	Table(header, body string) string
	TableRow(content string) string
	TableCell(content string, align table.Alignment, header bool) string
	DefinitionTerm(text string) string
	DefinitionDescription(text string) string

	Emphasis(text string) string
	DoubleEmphasis(text string) string
	TripleEmphasis(text string) string
	Strikethrough(text string) string
	Superscript(text string) string
	CodeSpan(text string) string
	Link(url, title, content string) string
	Image(url, title, alt string) string
	AutoLink(url string, email bool) string
	FootnoteRef(label string) string
	FootnoteDef(text, label string) string
	LineBreak() string
	RawHTML(html string) string
	TaskCheckBox(checked bool) string
}

var (
	spaceRun  = regexp.MustCompile(` {2,}`)
	breakTag  = regexp.MustCompile(`(?i)^<br\s*/?>$`)
	tagInside = regexp.MustCompile(`^<(/?)(.*?)(/?)>$`)
)

// console renders to ANSI for a terminal. It implements Callbacks.
type console struct {
	ctx     context.Context
	theme   *Theme
	session *Session
	cfg     *renderConfig
	width   int
}

func newConsole(ctx context.Context, theme *Theme, session *Session, cfg *renderConfig, width int) *console {
	if ctx == nil {
		ctx = context.Background()
	}
	if theme == nil {
		theme = DefaultTheme()
	}
	return &console{ctx: ctx, theme: theme, session: session, cfg: cfg, width: width}
}

func (c *console) color(key string) string {
	return c.theme.Color(key)
}

// xc resets to the plain text color.
func (c *console) xc() string {
	return sgr.Reset + c.color("text")
}

func (c *console) collapse(text string) string {
	if !c.cfg.preserveLinebreaks {
		text = strings.ReplaceAll(text, "\n", " ")
	}
	text = spaceRun.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, hardBreak, "\n")
	return strings.TrimSpace(text)
}

func (c *console) Header(text string, level int) string {
	style := c.theme.header(level)
	text = strings.TrimSpace(text)
	var pad string
	if level <= 2 && style.PadChar != "" && c.width > 0 {
		n := visibleWidth(text)
		if n+2 <= c.width {
			pad = strings.Repeat(style.PadChar, c.width-(n+1))
		} else {
			pad = strings.Repeat(style.PadChar, n)
		}
		pad = " " + c.color("h"+string(rune('0'+level))+" pad") + pad
	}
	var mark string
	if c.cfg.itermMarks && level < 4 {
		mark = itermMark
	}
	ansi := c.color("h" + string(rune('0'+level)) + " color")
	return "\n\n" + mark + c.xc() + ansi + text + pad + c.xc() + "\n\n"
}

func (c *console) Paragraph(text string) string {
	return c.xc() + c.collapse(text) + c.xc() + "\n\n"
}

func (c *console) TextBlock(text string) string {
	return c.collapse(text) + "\n"
}

func (c *console) BlockQuote(text string) string {
	resolved, err := c.fixLists(text)
	if err != nil {
		logger.Error("blockquote lists", "err", err)
		resolved = text
	}
	prefix := c.color("blockquote marker color") + c.theme.Blockquote.Marker.Character + c.color("blockquote color") + " "
	w := wrap.Wrapper{Measure: visibleWidth}
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(resolved), "\n") {
		for _, l := range strings.Split(w.Wrap(line, c.width-2), "\n") {
			out = append(out, prefix+l+c.xc())
		}
	}
	return "\n\n" + strings.Join(out, "\n") + "\n\n"
}

func (c *console) BlockHTML(html string) string {
	return "\n\n" + c.color("html color") + strings.TrimSpace(html) + c.xc() + "\n\n"
}

func (c *console) HRule() string {
	width := c.width
	if width <= 0 {
		width = 80
	}
	return "\n\n" + c.color("hr color") + strings.Repeat("_", width) + c.xc() + "\n\n"
}

func (c *console) List(contents string, ordered bool) string {
	return c.session.wrap(KindList, contents, func(n *Node) { n.Ordered = ordered }) + "\n\n"
}

func (c *console) ListItem(text string, ordered bool) string {
	return c.session.wrap(KindItem, strings.TrimSpace(text), func(n *Node) { n.Ordered = ordered }) + "\n"
}

func (c *console) TableCell(content string, align table.Alignment, header bool) string {
	pt := &c.session.table
	if header {
		pt.align = append(pt.align, align)
	}
	pt.cells = append(pt.cells, c.collapse(content))
	return ""
}

func (c *console) TableRow(string) string {
	pt := &c.session.table
	pt.rows = append(pt.rows, pt.cells)
	pt.cells = nil
	return ""
}

func (c *console) Table(string, string) string {
	pt := c.session.table
	c.session.table = pendingTable{}
	if len(pt.rows) == 0 {
		return ""
	}
	f := table.Formatter{
		Measure: visibleWidth,
		Colors: table.Colors{
			Border:  c.color("table border"),
			Header:  c.color("table header"),
			Divider: c.color("table divider"),
			Body:    c.color("table color"),
		},
	}
	lines := strings.Split(f.Render(f.Build(pt.rows, pt.align)), "\n")
	for i, line := range lines {
		lines[i] = preformatMarker + line
	}
	return "\n\n" + strings.Join(lines, "\n") + c.xc() + "\n\n"
}

func (c *console) DefinitionTerm(text string) string {
	return "\n" + c.color("dd term") + c.collapse(text) + c.xc() + "\n"
}

func (c *console) DefinitionDescription(text string) string {
	return c.color("dd marker") + ": " + c.color("dd color") + c.collapse(text) + c.xc() + "\n"
}

func (c *console) Emphasis(text string) string {
	ch := c.theme.Emphasis.ItalicCharacter
	return c.session.span(c.color("emphasis italic") + ch + text + ch + c.xc())
}

func (c *console) DoubleEmphasis(text string) string {
	ch := c.theme.Emphasis.BoldCharacter
	return c.session.span(c.color("emphasis bold") + ch + text + ch + c.xc())
}

func (c *console) TripleEmphasis(text string) string {
	ch := c.theme.Emphasis.BoldCharacter + c.theme.Emphasis.ItalicCharacter
	return c.session.span(c.color("emphasis bold-italic") + ch + text + ch + c.xc())
}

func (c *console) Strikethrough(text string) string {
	return c.session.span(c.color("strikethrough") + text + c.xc())
}

func (c *console) Superscript(text string) string {
	return c.session.span(c.color("super") + "^" + text + c.xc())
}

func (c *console) CodeSpan(text string) string {
	marker := c.color("code_span marker") + c.theme.CodeSpan.Character
	return c.session.span(marker + c.color("code_span color") + text + marker + c.xc())
}

func (c *console) linkText(url, title, content string) string {
	var b strings.Builder
	b.WriteString(c.color("link brackets") + "[" + c.color("link text"))
	if c.cfg.osc8 && c.cfg.links == LinkInline {
		b.WriteString(hyperlink(url, content))
	} else {
		b.WriteString(content)
	}
	b.WriteString(c.color("link brackets") + "](" + c.color("link url") + url)
	if title != "" {
		b.WriteString(" \"" + title + "\"")
	}
	b.WriteString(c.color("link brackets") + ")" + c.xc())
	return b.String()
}

func (c *console) Link(url, title, content string) string {
	return c.session.wrap(KindLink, c.linkText(url, title, content), func(n *Node) {
		n.URL = url
		n.Title = title
		n.Content = content
	})
}

func (c *console) imageText(url, title, alt string) string {
	var b strings.Builder
	b.WriteString(c.color("image bang") + "!" + c.color("image brackets") + "[" + c.color("image title") + alt)
	b.WriteString(c.color("image brackets") + "](" + c.color("image url") + url)
	if title != "" {
		b.WriteString(" \"" + title + "\"")
	}
	b.WriteString(c.color("image brackets") + ")" + c.xc())
	return b.String()
}

func (c *console) Image(url, title, alt string) string {
	return c.session.wrap(KindImage, c.imageText(url, title, alt), func(n *Node) {
		n.URL = url
		n.Title = title
		n.Content = alt
	})
}

func (c *console) AutoLink(url string, email bool) string {
	shown := url
	if c.cfg.osc8 {
		target := url
		if email && !strings.HasPrefix(url, "mailto:") {
			target = "mailto:" + url
		}
		shown = hyperlink(target, url)
	}
	return c.session.span(c.color("link brackets") + "<" + c.color("link url") + shown + c.color("link brackets") + ">" + c.xc())
}

func (c *console) footnoteTag(label string) string {
	return c.color("footnote brackets") + "[" + c.color("footnote caret") + "^" + c.color("footnote title") + label + c.color("footnote brackets") + "]"
}

func (c *console) FootnoteRef(label string) string {
	return c.session.wrap(KindFootnoteRef, c.footnoteTag(label)+c.xc(), func(n *Node) { n.Label = label })
}

func (c *console) FootnoteDef(text, label string) string {
	c.session.footnotes.Set(label, text)
	return ""
}

func (c *console) LineBreak() string {
	return hardBreak
}

func (c *console) RawHTML(html string) string {
	if breakTag.MatchString(strings.TrimSpace(html)) {
		return hardBreak
	}
	m := tagInside.FindStringSubmatch(strings.TrimSpace(html))
	if m == nil {
		return c.session.span(c.color("html color") + html + c.xc())
	}
	brackets := c.color("html brackets")
	return c.session.span(brackets + "<" + m[1] + c.color("html color") + m[2] + brackets + m[3] + ">" + c.xc())
}

func (c *console) TaskCheckBox(checked bool) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	return c.session.span(c.color("list bullet")+box+c.xc()) + " "
}
