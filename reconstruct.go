package mdless

import (
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/mdless/internal/sgr"
)

// piece is either literal text or a marked element.
type piece struct {
	text string
	el   *element
}

type element struct {
	node  *Node
	parts []piece
}

// parse builds the span tree for text and refreshes the arena's parent and
// children links from it.
func (s *Session) parse(text string) (*element, error) {
	for _, n := range s.nodes {
		n.Parent = nil
		n.Children = nil
	}
	root := &element{}
	stack := []*element{root}
	last := 0
	for _, loc := range markerPattern.FindAllStringIndex(text, -1) {
		top := stack[len(stack)-1]
		if loc[0] > last {
			top.parts = append(top.parts, piece{text: text[last:loc[0]]})
		}
		last = loc[1]
		tok := text[loc[0]:loc[1]]
		id, ok := markerID(tok)
		if !ok {
			return nil, fmt.Errorf("%w: malformed marker %q", ErrStructuralMismatch, tok)
		}
		if strings.HasPrefix(tok, string(markOpen)) {
			n, ok := s.Node(id)
			if !ok {
				return nil, fmt.Errorf("%w: unknown node %d", ErrStructuralMismatch, id)
			}
			el := &element{node: n}
			top.parts = append(top.parts, piece{el: el})
			if top.node != nil {
				n.Parent = top.node
				top.node.Children = append(top.node.Children, n)
			}
			stack = append(stack, el)
			continue
		}
		if top.node == nil || top.node.ID != id {
			return nil, fmt.Errorf("%w: unexpected close of node %d", ErrStructuralMismatch, id)
		}
		stack = stack[:len(stack)-1]
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: node %d never closed", ErrStructuralMismatch, stack[len(stack)-1].node.ID)
	}
	if last < len(text) {
		root.parts = append(root.parts, piece{text: text[last:]})
	}
	return root, nil
}

// listWriter renders list and item nodes. counters holds the running
// number of the innermost ordered list open at each depth.
type listWriter struct {
	c        *console
	counters []int
}

// fixLists resolves list and item markers into indented, numbered lines.
// Inline markers are kept for the color pass.
func (c *console) fixLists(text string) (string, error) {
	root, err := c.session.parse(text)
	if err != nil {
		return "", err
	}
	w := &listWriter{c: c}
	return w.emit(root.parts, 0), nil
}

func (w *listWriter) emit(parts []piece, depth int) string {
	var b strings.Builder
	for _, p := range parts {
		switch {
		case p.el == nil:
			b.WriteString(p.text)
		case p.el.node.Kind == KindList:
			b.WriteString(w.list(p.el, depth))
		case p.el.node.Kind == KindItem:
			b.WriteString(w.emit(p.el.parts, depth))
		default:
			b.WriteString(openMarker(p.el.node.ID))
			b.WriteString(w.emit(p.el.parts, depth))
			b.WriteString(closeMarker(p.el.node.ID))
		}
	}
	return b.String()
}

func (w *listWriter) list(el *element, depth int) string {
	for len(w.counters) <= depth {
		w.counters = append(w.counters, 0)
	}
	w.counters = w.counters[:depth+1]
	w.counters[depth] = 0

	var items []string
	for _, p := range el.parts {
		switch {
		case p.el != nil && p.el.node.Kind == KindItem:
			w.counters[depth]++
			items = append(items, w.item(p.el, depth, el.node.Ordered, w.counters[depth]))
			w.counters = w.counters[:depth+1]
		case p.el != nil:
			items = append(items, strings.TrimSpace(w.emit([]piece{p}, depth+1)))
		case strings.TrimSpace(p.text) != "":
			items = append(items, strings.TrimSpace(p.text))
		}
	}
	return strings.Join(items, "\n")
}

func (w *listWriter) marker(depth int, ordered bool, n int) string {
	pad := strings.Repeat("  ", depth)
	if ordered {
		return pad + w.c.color("list number") + strconv.Itoa(n) + ". "
	}
	return pad + w.c.color("list bullet") + "* "
}

// hang is the column where an item's text starts. Continuation lines are
// padded to it with plain spaces ahead of any escape, so the wrapper sees
// them as leading whitespace.
func hang(depth int, ordered bool, n int) string {
	width := 2
	if ordered {
		width = len(strconv.Itoa(n)) + 2
	}
	return strings.Repeat(" ", 2*depth+width)
}

func (w *listWriter) item(el *element, depth int, ordered bool, n int) string {
	var (
		lines []string
		lit   strings.Builder
	)
	color := w.c.color("list color")
	flush := func() {
		text := strings.Trim(lit.String(), "\n")
		lit.Reset()
		if strings.TrimSpace(text) == "" {
			return
		}
		first, rest, _ := strings.Cut(text, "\n")
		if len(lines) == 0 {
			lines = append(lines, w.marker(depth, ordered, n)+color+strings.TrimSpace(first)+w.c.xc())
		} else {
			rest = text
		}
		if rest == "" {
			return
		}
		pad := hang(depth, ordered, n)
		for _, l := range strings.Split(rest, "\n") {
			if strings.TrimSpace(sgr.Strip(l)) == "" {
				lines = append(lines, "")
				continue
			}
			lines = append(lines, pad+color+strings.TrimSpace(l)+w.c.xc())
		}
	}
	for _, p := range el.parts {
		switch {
		case p.el == nil:
			lit.WriteString(p.text)
		case p.el.node.Kind == KindList:
			flush()
			if len(lines) == 0 {
				lines = append(lines, w.marker(depth, ordered, n)+w.c.xc())
			}
			lines = append(lines, strings.TrimRight(w.list(p.el, depth+1), "\n"))
		default:
			lit.WriteString(w.emit([]piece{p}, depth+1))
		}
	}
	flush()
	if len(lines) == 0 {
		lines = append(lines, w.marker(depth, ordered, n)+w.c.xc())
	}
	return strings.Join(lines, "\n")
}

// fixColors drops the remaining markers. After each inline span the style
// that was active before the span opened is re-established, so a span's own
// reset never leaks into the text that follows it.
func (c *console) fixColors(text string) (string, error) {
	root, err := c.session.parse(text)
	if err != nil {
		return "", err
	}
	var (
		b  strings.Builder
		tr sgr.Tracker
	)
	var walk func(parts []piece)
	walk = func(parts []piece) {
		for _, p := range parts {
			if p.el == nil {
				b.WriteString(p.text)
				tr.Feed(p.text)
				continue
			}
			if !p.el.node.Inline() {
				walk(p.el.parts)
				continue
			}
			saved := tr
			walk(p.el.parts)
			if style := saved.Style(); style != "" {
				b.WriteString(style)
				tr.Feed(style)
			}
		}
	}
	walk(root.parts)
	return b.String(), nil
}
