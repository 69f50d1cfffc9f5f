package mdless

import (
	"regexp"
	"strconv"
	"strings"

	"pkt.systems/mdless/internal/sgr"
	"pkt.systems/mdless/internal/table"
)

// Placeholder markers are private-use runes so they can never collide with
// document text; input is scrubbed of this range before rendering.
const (
	markOpen  = '\uE000'
	markClose = '\uE001'
	markEnd   = '\uE002'
	hardBreak = "\uE003"
)

var markerPattern = regexp.MustCompile(`[\x{E000}\x{E001}][0-9]+\x{E002}`)

// NodeKind classifies a placeholder node.
type NodeKind int

const (
	KindList NodeKind = iota
	KindItem
	KindSpan
	KindLink
	KindImage
	KindFootnoteRef
)

func (k NodeKind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindItem:
		return "item"
	case KindSpan:
		return "span"
	case KindLink:
		return "link"
	case KindImage:
		return "image"
	case KindFootnoteRef:
		return "footnote"
	default:
		return "unknown"
	}
}

// Node is one placeholder span. Parent and Children are filled in when the
// reconstructor parses the marked-up text.
type Node struct {
	ID       int
	Kind     NodeKind
	Parent   *Node
	Children []*Node
	// Text is the span's content as first rendered.
	Text    string
	Ordered bool
	URL     string
	Title   string
	Content string
	Label   string
}

// Inline reports whether the node is restored by the color pass rather than
// the list pass.
func (n *Node) Inline() bool {
	return n.Kind != KindList && n.Kind != KindItem
}

// Footnotes is an ordered label to definition registry. Redefining a label
// replaces its text but keeps its original position.
type Footnotes struct {
	order []string
	defs  map[string]string
}

// Set stores text under label.
func (f *Footnotes) Set(label, text string) {
	if f.defs == nil {
		f.defs = make(map[string]string)
	}
	if _, ok := f.defs[label]; !ok {
		f.order = append(f.order, label)
	}
	f.defs[label] = text
}

// Get returns the definition for label.
func (f *Footnotes) Get(label string) (string, bool) {
	text, ok := f.defs[label]
	return text, ok
}

// Labels returns the labels in first-definition order.
func (f *Footnotes) Labels() []string {
	return append([]string(nil), f.order...)
}

// Len is the number of distinct labels.
func (f *Footnotes) Len() int { return len(f.order) }

type pendingTable struct {
	align []table.Alignment
	cells []string
	rows  [][]string
}

// Session holds everything one document accumulates while rendering. It must
// be Reset between documents.
type Session struct {
	nodes     []*Node
	footnotes Footnotes
	links     []*Node
	images    []*Node
	table     pendingTable
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Reset discards all nodes and registries.
func (s *Session) Reset() {
	*s = Session{}
}

// Node returns the node with the given id.
func (s *Session) Node(id int) (*Node, bool) {
	if id < 1 || id > len(s.nodes) {
		return nil, false
	}
	return s.nodes[id-1], true
}

// Nodes returns every node in creation order.
func (s *Session) Nodes() []*Node { return s.nodes }

// Footnotes returns the footnote registry.
func (s *Session) Footnotes() *Footnotes { return &s.footnotes }

// Links returns link nodes in render order.
func (s *Session) Links() []*Node { return s.links }

// Images returns image nodes in render order.
func (s *Session) Images() []*Node { return s.images }

func (s *Session) newNode(kind NodeKind, text string) *Node {
	n := &Node{ID: len(s.nodes) + 1, Kind: kind, Text: text}
	s.nodes = append(s.nodes, n)
	switch kind {
	case KindLink:
		s.links = append(s.links, n)
	case KindImage:
		s.images = append(s.images, n)
	}
	return n
}

// wrap registers a node and returns text enclosed in its markers.
func (s *Session) wrap(kind NodeKind, text string, init func(*Node)) string {
	n := s.newNode(kind, text)
	if init != nil {
		init(n)
	}
	return openMarker(n.ID) + text + closeMarker(n.ID)
}

func (s *Session) span(text string) string {
	return s.wrap(KindSpan, text, nil)
}

func openMarker(id int) string {
	return string(markOpen) + strconv.Itoa(id) + string(markEnd)
}

func closeMarker(id int) string {
	return string(markClose) + strconv.Itoa(id) + string(markEnd)
}

// stripMarkers removes every placeholder marker.
func stripMarkers(text string) string {
	if !strings.ContainsAny(text, "\uE000\uE001") {
		return text
	}
	return markerPattern.ReplaceAllString(text, "")
}

// visibleWidth measures text with both escapes and markers as zero width.
func visibleWidth(text string) int {
	return sgr.VisibleLength(stripMarkers(text))
}

// openedNodes returns the nodes whose open marker appears in text, in order.
func (s *Session) openedNodes(text string) []*Node {
	var out []*Node
	for _, loc := range markerPattern.FindAllStringIndex(text, -1) {
		tok := text[loc[0]:loc[1]]
		if []rune(tok)[0] != markOpen {
			continue
		}
		id, ok := markerID(tok)
		if !ok {
			continue
		}
		if n, ok := s.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}

func markerID(tok string) (int, bool) {
	runes := []rune(tok)
	if len(runes) < 3 {
		return 0, false
	}
	id, err := strconv.Atoi(string(runes[1 : len(runes)-1]))
	return id, err == nil
}

// replaceInner swaps the content between a node's markers.
func replaceInner(text string, id int, inner string) (string, bool) {
	open, close := openMarker(id), closeMarker(id)
	start := strings.Index(text, open)
	if start < 0 {
		return text, false
	}
	end := strings.Index(text[start:], close)
	if end < 0 {
		return text, false
	}
	end += start
	return text[:start+len(open)] + inner + text[end:], true
}
