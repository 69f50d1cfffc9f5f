package sgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"attributes and colors", []string{"x", "b", "intense_black", "on_white"}, "\x1b[0;1;90;47m"},
		{"palette", []string{"c208", "on_c17"}, "\x1b[38;5;208;48;5;17m"},
		{"truecolor", []string{"#ff8800", "on_#012"}, "\x1b[38;2;255;136;0;48;2;0;17;34m"},
		{"unknown dropped", []string{"u", "sparkly", "c999", "#zzzzzz"}, "\x1b[4m"},
		{"nothing known", []string{"sparkly"}, ""},
		{"empty", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Encode(tc.tokens))
		})
	}
}

func TestStripOfEncodeIsEmpty(t *testing.T) {
	for _, tokens := range [][]string{
		{"b"},
		{"x", "u", "b", "blue"},
		{"on_#ffffff", "c12"},
		{"nonsense", "tokens"},
	} {
		assert.Empty(t, Strip(Encode(tokens)), "tokens %v", tokens)
	}
}

func TestVisibleLength(t *testing.T) {
	for _, text := range []string{"", "plain text", "a | b | c", "  spaced  "} {
		assert.Equal(t, len(text), VisibleLength(text))
	}
	assert.Equal(t, 5, VisibleLength("\x1b[1;31mhello\x1b[0m"))
	assert.Equal(t, 4, VisibleLength("\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\"))
}

func TestLastActiveStyle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no escapes", "plain", ""},
		{"accumulates attributes", "\x1b[1mbold\x1b[4m under", "\x1b[0;1;4m"},
		{"reset clears", "\x1b[1;31mred\x1b[0m plain", "\x1b[0m"},
		{"foreground replaced", "\x1b[31mred\x1b[32mgreen", "\x1b[0;32m"},
		{"truecolor replaced by basic", "\x1b[38;2;1;2;3mx\x1b[44m\x1b[94my", "\x1b[0;94;44m"},
		{"attribute off", "\x1b[1;3mx\x1b[22my", "\x1b[0;3m"},
		{"default colors", "\x1b[31;41mx\x1b[39;49m", "\x1b[0m"},
		{"palette background", "\x1b[48;5;236mcode", "\x1b[0;48;5;236m"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LastActiveStyle(tc.text))
		})
	}
}

func TestLastActiveStyleIdempotentUnderSelfAppend(t *testing.T) {
	for _, text := range []string{
		"",
		"plain",
		"\x1b[0;1;97;47mTitle\x1b[0m\x1b[37m text",
		"\x1b[4mu\x1b[38;5;208mx\x1b[48;2;9;9;9my",
		"\x1b[1m\x1b[22m",
	} {
		style := LastActiveStyle(text)
		assert.Equal(t, style, LastActiveStyle(text+style), "text %q", text)
	}
}

func TestBlackout(t *testing.T) {
	bg := Encode([]string{"on_black"})
	out := Blackout("one\x1b[0mtwo\nthree\x1b[32;44mfour", bg)
	require.Equal(t, "\x1b[40mone\x1b[0;40mtwo\n\x1b[40mthree\x1b[32;40mfour", out)
	assert.Equal(t, "a\nb", Blackout("a\nb", ""))
	assert.Equal(t, "\x1b[0;40m", LastActiveStyle(Blackout("x\x1b[0m", bg)))
}

func TestTrackerMatchesLastActiveStyle(t *testing.T) {
	pieces := []string{"plain ", "\x1b[1mbold", " \x1b[33myellow", "\x1b[0m", "\x1b[4;44m under"}
	var tr Tracker
	assert.Equal(t, "", tr.Style())
	joined := ""
	for _, p := range pieces {
		tr.Feed(p)
		joined += p
		assert.Equal(t, LastActiveStyle(joined), tr.Style(), "after %q", joined)
	}
	assert.Equal(t, "\x1b[0;4;44m", tr.Style())
}
