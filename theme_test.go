package mdless

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"pkt.systems/mdless/internal/logger"
	"pkt.systems/mdless/internal/sgr"
)

func TestThemeColorResolvesKeys(t *testing.T) {
	theme := DefaultTheme()
	tests := []struct {
		key  string
		want string
	}{
		{"h1 color", "\x1b[0;1;90;47m"},
		{"link url", "\x1b[0;36m"},
		{"blockquote marker color", "\x1b[0;2;31m"},
		{"blockquote>marker>color", "\x1b[0;2;31m"},
		{"table,border", "\x1b[0;2;30m"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := theme.Color(tt.key); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestThemeUnknownKeyLogsAndResets(t *testing.T) {
	var logs bytes.Buffer
	logger.Configure("error", &logs)
	t.Cleanup(func() { logger.Configure("warn", nil) })

	theme := DefaultTheme()
	if got := theme.Color("h9 color"); got != sgr.Reset {
		t.Fatalf("expected bare reset, got %q", got)
	}
	if !strings.Contains(logs.String(), "invalid theme key") || !strings.Contains(logs.String(), "h9 color") {
		t.Fatalf("lookup not logged: %q", logs.String())
	}
	if _, err := theme.Lookup("nope"); !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestLoadThemeMergesOverDefaults(t *testing.T) {
	src := `
h1:
  color: b red
code_block:
  lexers:
    go: native
`
	theme, err := LoadTheme(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load theme: %v", err)
	}
	if theme.H1.Color != "b red" {
		t.Fatalf("h1 color not overridden: %q", theme.H1.Color)
	}
	if theme.H1.PadChar != "=" {
		t.Fatalf("untouched keys should keep defaults, got pad char %q", theme.H1.PadChar)
	}
	if theme.H2.Pad != "d white on_intense_black" {
		t.Fatalf("unexpected h2 pad %q", theme.H2.Pad)
	}
	if got := theme.HighlightStyle("Go"); got != "native" {
		t.Fatalf("expected native style for go, got %q", got)
	}
	if got := theme.HighlightStyle("ruby"); got != "monokai" {
		t.Fatalf("expected monokai fallback, got %q", got)
	}
}

func TestLoadThemeMalformedKeepsDefaults(t *testing.T) {
	theme, err := LoadTheme(strings.NewReader("h1: [unclosed"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !reflect.DeepEqual(theme, DefaultTheme()) {
		t.Fatalf("malformed theme should fall back to defaults")
	}

	theme, err = LoadTheme(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty theme: %v", err)
	}
	if !reflect.DeepEqual(theme, DefaultTheme()) {
		t.Fatalf("empty theme should equal defaults")
	}
}

func TestDumpThemeRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpTheme(&buf, DefaultTheme()); err != nil {
		t.Fatalf("dump theme: %v", err)
	}
	if !strings.Contains(buf.String(), "pad_char: =") {
		t.Fatalf("dump missing pad_char: %q", buf.String())
	}
	theme, err := LoadTheme(&buf)
	if err != nil {
		t.Fatalf("reload theme: %v", err)
	}
	if !reflect.DeepEqual(theme, DefaultTheme()) {
		t.Fatalf("round trip changed the theme")
	}
}

func TestThemeKeysAreAllResolvable(t *testing.T) {
	theme := DefaultTheme()
	for _, key := range theme.Keys() {
		if _, err := theme.Lookup(key); err != nil {
			t.Fatalf("key %q: %v", key, err)
		}
	}
}
