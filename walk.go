package mdless

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"pkt.systems/mdless/internal/table"
)

// KindSuperscript is the node kind of ^superscript spans.
var KindSuperscript = ast.NewNodeKind("Superscript")

type superscriptNode struct {
	ast.BaseInline
}

func (n *superscriptNode) Kind() ast.NodeKind { return KindSuperscript }

func (n *superscriptNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// superscriptParser reads ^word and ^(several words).
type superscriptParser struct{}

func (superscriptParser) Trigger() []byte { return []byte{'^'} }

func (superscriptParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	if block.PrecendingCharacter() == '[' {
		return nil
	}
	line, seg := block.PeekLine()
	if len(line) < 2 {
		return nil
	}
	var start, stop, advance int
	if line[1] == '(' {
		end := bytes.IndexByte(line, ')')
		if end < 3 {
			return nil
		}
		start, stop, advance = 2, end, end+1
	} else {
		i := 1
		for i < len(line) && line[i] != '^' && !unicode.IsSpace(rune(line[i])) {
			i++
		}
		if i == 1 {
			return nil
		}
		start, stop, advance = 1, i, i
	}
	node := &superscriptNode{}
	node.AppendChild(node, ast.NewTextSegment(text.NewSegment(seg.Start+start, seg.Start+stop)))
	block.Advance(advance)
	return node
}

type superscriptExtension struct{}

func (superscriptExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(superscriptParser{}, 600)))
}

// footnoteOverride lets a repeated footnote definition replace the content
// of the first definition with the same label. Transformers run in
// ascending priority, so it must sit below the footnote extension's own
// transformer (999), which drops unreferenced repeats.
type footnoteOverride struct{}

func (footnoteOverride) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		list, ok := n.(*extast.FootnoteList)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		first := make(map[string]*extast.Footnote)
		for c := list.FirstChild(); c != nil; {
			next := c.NextSibling()
			if fn, ok := c.(*extast.Footnote); ok {
				if prev, seen := first[string(fn.Ref)]; seen {
					prev.RemoveChildren(prev)
					for gc := fn.FirstChild(); gc != nil; {
						gnext := gc.NextSibling()
						prev.AppendChild(prev, gc)
						gc = gnext
					}
					list.RemoveChild(list, fn)
				} else {
					first[string(fn.Ref)] = fn
				}
			}
			c = next
		}
		return ast.WalkSkipChildren, nil
	})
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.TaskList,
			extension.Footnote,
			extension.DefinitionList,
			superscriptExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithHeadingAttribute(),
			parser.WithASTTransformers(util.Prioritized(footnoteOverride{}, 100)),
		),
	)
}

// walker renders a goldmark tree bottom-up through Callbacks.
type walker struct {
	cb     Callbacks
	src    []byte
	labels map[int]string
}

// renderMarkdown parses src and drives cb over the result.
func renderMarkdown(cb Callbacks, src []byte) string {
	doc := newMarkdown().Parser().Parse(text.NewReader(src))
	w := &walker{cb: cb, src: src, labels: footnoteLabels(doc)}
	return w.render(doc)
}

func footnoteLabels(doc ast.Node) map[int]string {
	labels := make(map[int]string)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fn, ok := n.(*extast.Footnote); ok && entering {
			labels[fn.Index] = string(fn.Ref)
		}
		return ast.WalkContinue, nil
	})
	return labels
}

func (w *walker) children(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.WriteString(w.render(c))
	}
	return b.String()
}

func (w *walker) lines(n ast.Node) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(w.src))
	}
	return b.String()
}

// plain concatenates the literal text below n.
func (w *walker) plain(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(w.src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(w.plain(c))
		}
	}
	return b.String()
}

func unescape(value []byte) string {
	value = util.UnescapePunctuations(value)
	value = util.ResolveNumericReferences(value)
	return string(util.ResolveEntityNames(value))
}

func alignment(a extast.Alignment) table.Alignment {
	switch a {
	case extast.AlignLeft:
		return table.AlignLeft
	case extast.AlignRight:
		return table.AlignRight
	case extast.AlignCenter:
		return table.AlignCenter
	default:
		return table.AlignJustify
	}
}

func (w *walker) tableRow(n ast.Node, header bool) string {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if cell, ok := c.(*extast.TableCell); ok {
			w.cb.TableCell(w.children(cell), alignment(cell.Alignment), header)
		}
	}
	return w.cb.TableRow("")
}

func (w *walker) render(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Document:
		return w.children(n)
	case *ast.Heading:
		return w.cb.Header(w.children(n), n.Level)
	case *ast.Paragraph:
		return w.cb.Paragraph(w.children(n))
	case *ast.TextBlock:
		return w.cb.TextBlock(w.children(n))
	case *ast.Blockquote:
		return w.cb.BlockQuote(w.children(n))
	case *ast.FencedCodeBlock:
		return w.cb.BlockCode(w.lines(n), string(n.Language(w.src)))
	case *ast.CodeBlock:
		return w.cb.BlockCode(w.lines(n), "")
	case *ast.HTMLBlock:
		html := w.lines(n)
		if n.HasClosure() {
			html += string(n.ClosureLine.Value(w.src))
		}
		return w.cb.BlockHTML(html)
	case *ast.ThematicBreak:
		return w.cb.HRule()
	case *ast.List:
		return w.cb.List(w.children(n), n.IsOrdered())
	case *ast.ListItem:
		ordered := false
		if list, ok := n.Parent().(*ast.List); ok {
			ordered = list.IsOrdered()
		}
		return w.cb.ListItem(w.children(n), ordered)
	case *ast.Text:
		s := unescape(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			s += w.cb.LineBreak()
		case n.SoftLineBreak():
			s += "\n"
		}
		return s
	case *ast.String:
		return string(n.Value)
	case *ast.CodeSpan:
		return w.cb.CodeSpan(w.plain(n))
	case *ast.Emphasis:
		if inner, ok := n.FirstChild().(*ast.Emphasis); ok && n.ChildCount() == 1 && n.Level+inner.Level == 3 {
			return w.cb.TripleEmphasis(w.children(inner))
		}
		if n.Level >= 2 {
			return w.cb.DoubleEmphasis(w.children(n))
		}
		return w.cb.Emphasis(w.children(n))
	case *ast.Link:
		return w.cb.Link(string(n.Destination), string(n.Title), w.children(n))
	case *ast.Image:
		return w.cb.Image(string(n.Destination), string(n.Title), w.plain(n))
	case *ast.AutoLink:
		return w.cb.AutoLink(string(n.URL(w.src)), n.AutoLinkType == ast.AutoLinkEmail)
	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
		return w.cb.RawHTML(b.String())
	case *superscriptNode:
		return w.cb.Superscript(w.children(n))
	case *extast.Strikethrough:
		return w.cb.Strikethrough(w.children(n))
	case *extast.TaskCheckBox:
		return w.cb.TaskCheckBox(n.IsChecked)
	case *extast.Table:
		var header, body strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch row := c.(type) {
			case *extast.TableHeader:
				header.WriteString(w.tableRow(row, true))
			case *extast.TableRow:
				body.WriteString(w.tableRow(row, false))
			}
		}
		return w.cb.Table(header.String(), body.String())
	case *extast.FootnoteLink:
		return w.cb.FootnoteRef(w.labels[n.Index])
	case *extast.FootnoteBacklink:
		return ""
	case *extast.FootnoteList:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if fn, ok := c.(*extast.Footnote); ok {
				w.cb.FootnoteDef(strings.TrimSpace(w.children(fn)), string(fn.Ref))
			}
		}
		return ""
	case *extast.DefinitionList:
		return "\n" + w.children(n) + "\n\n"
	case *extast.DefinitionTerm:
		return w.cb.DefinitionTerm(w.children(n))
	case *extast.DefinitionDescription:
		return w.cb.DefinitionDescription(w.children(n))
	default:
		return w.children(n)
	}
}
