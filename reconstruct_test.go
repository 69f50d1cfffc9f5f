package mdless

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/mdless/internal/sgr"
)

func testConsole(s *Session, color bool) *console {
	cfg := defaultConfig()
	cfg.color = color
	return newConsole(context.Background(), nil, s, &cfg, 40)
}

func TestParseRejectsUnbalancedMarkers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		setup func(s *Session) string
	}{
		{"unknown node", func(s *Session) string {
			return openMarker(3) + "x" + closeMarker(3)
		}},
		{"never closed", func(s *Session) string {
			s.newNode(KindSpan, "x")
			return openMarker(1) + "x"
		}},
		{"crossed", func(s *Session) string {
			s.newNode(KindSpan, "a")
			s.newNode(KindSpan, "b")
			return openMarker(1) + openMarker(2) + closeMarker(1) + closeMarker(2)
		}},
		{"stray close", func(s *Session) string {
			s.newNode(KindSpan, "a")
			return "x" + closeMarker(1)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			_, err := s.parse(tt.setup(s))
			assert.ErrorIs(t, err, ErrStructuralMismatch)
		})
	}
}

func TestParseLinksParentsAndChildren(t *testing.T) {
	t.Parallel()
	s := NewSession()
	text := s.wrap(KindList, s.wrap(KindItem, "a"+s.span("b"), nil), nil)
	_, err := s.parse(text)
	require.NoError(t, err)

	span, _ := s.Node(1)
	item, _ := s.Node(2)
	list, _ := s.Node(3)
	assert.Same(t, item, span.Parent)
	assert.Same(t, list, item.Parent)
	assert.Nil(t, list.Parent)
	assert.Equal(t, []*Node{item}, list.Children)
	assert.True(t, span.Inline())
	assert.False(t, item.Inline())
}

func TestFixColorsRestoresPrecedingStyle(t *testing.T) {
	t.Parallel()
	s := NewSession()
	c := testConsole(s, true)
	red := sgr.EncodeSpec("x red")
	bold := sgr.EncodeSpec("x b")
	blue := sgr.EncodeSpec("x blue")

	inner := s.span(blue + "c" + sgr.Reset)
	outer := s.span(bold + "b " + inner + " d" + sgr.Reset)
	out, err := c.fixColors(red + "a " + outer + " e")
	require.NoError(t, err)

	want := red + "a " + bold + "b " + blue + "c" + sgr.Reset +
		sgr.LastActiveStyle(red+"a "+bold+"b ") + " d" + sgr.Reset +
		sgr.LastActiveStyle(red+"a ") + " e"
	assert.Equal(t, want, out)
}

func TestFixColorsWithoutPrecedingStyle(t *testing.T) {
	t.Parallel()
	s := NewSession()
	c := testConsole(s, true)
	out, err := c.fixColors("plain " + s.span("x") + " tail")
	require.NoError(t, err)
	assert.Equal(t, "plain x tail", out)
}

func TestFixListsIndentsNestedContent(t *testing.T) {
	t.Parallel()
	s := NewSession()
	c := testConsole(s, false)
	nested := s.wrap(KindList, s.wrap(KindItem, "x", nil)+"\n", func(n *Node) { n.Ordered = true })
	text := s.wrap(KindList,
		s.wrap(KindItem, "a\n"+nested, nil)+"\n"+s.wrap(KindItem, "b\nmore", nil)+"\n",
		nil)
	out, err := c.fixLists(text)
	require.NoError(t, err)
	assert.Equal(t, "* a\n  1. x\n* b\n  more", sgr.Strip(out))
}

func TestHangMatchesMarkerWidth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		depth   int
		ordered bool
		n       int
		want    int
	}{
		{"bullet", 0, false, 1, 2},
		{"nested bullet", 1, false, 1, 4},
		{"ordered", 0, true, 1, 3},
		{"two digits", 0, true, 10, 4},
		{"nested ordered", 2, true, 3, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, strings.Repeat(" ", tt.want), hang(tt.depth, tt.ordered, tt.n))
		})
	}
}

func TestFixListsPadsContinuationBeforeColor(t *testing.T) {
	t.Parallel()
	s := NewSession()
	c := testConsole(s, true)
	text := s.wrap(KindList, s.wrap(KindItem, "a\n\nmore", nil)+"\n", func(n *Node) { n.Ordered = true })
	out, err := c.fixLists(text)
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "   \x1b["), "line %q", lines[2])
	assert.Equal(t, "   more", sgr.Strip(lines[2]))
}

func TestFootnotesLaterDefinitionWins(t *testing.T) {
	t.Parallel()
	var f Footnotes
	f.Set("a", "first")
	f.Set("b", "bee")
	f.Set("a", "second")
	text, ok := f.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", text)
	assert.Equal(t, []string{"a", "b"}, f.Labels())
	assert.Equal(t, 2, f.Len())
	_, ok = f.Get("missing")
	assert.False(t, ok)
}

func TestStripMarkersAndVisibleWidth(t *testing.T) {
	t.Parallel()
	s := NewSession()
	text := "\x1b[1m" + s.span("abc") + "\x1b[0m"
	assert.Equal(t, "\x1b[1mabc\x1b[0m", stripMarkers(text))
	assert.Equal(t, 3, visibleWidth(text))
	replaced, ok := replaceInner(text, 1, "zz")
	require.True(t, ok)
	assert.Equal(t, 2, visibleWidth(replaced))
	_, ok = replaceInner(text, 9, "zz")
	assert.False(t, ok)
}
