package mdless

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidateInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  []byte
		want error
	}{
		{"text", []byte("# hello\n\nworld\n"), nil},
		{"escapes are text", []byte("\x1b[1mbold\x1b[0m"), nil},
		{"invalid utf8 is not binary", []byte{0xff, 0xfe, 'a'}, nil},
		{"nul", append([]byte("hello"), 0x00), ErrBinaryInput},
		{"control heavy", append(bytes.Repeat([]byte("a"), 97), 0x01, 0x02, 0x03), ErrBinaryInput},
		{"few controls in short input", []byte("a\x01b"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.src)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"invalid utf8", "a\xffb", "ab"},
		{"controls", "a\x01b\tc", "ab\tc"},
		{"marker runes", "\uE000x\uE0011\uE002\uE003y", "x1y"},
		{"escape kept", "\x1b[1mz", "\x1b[1mz"},
		{"sgr run kept", "pre \x1b[31mred\x1b[0m text", "pre \x1b[31mred\x1b[0m text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize([]byte(tt.src)); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderKeepsEmbeddedEscapes(t *testing.T) {
	t.Parallel()
	src := "pre \x1b[31mred\x1b[0m text"
	out := renderColor(t, src, 40)
	if !strings.Contains(out, "\x1b[31mred") {
		t.Fatalf("embedded escape lost: %q", out)
	}
	if strings.Contains(out, " [31m") {
		t.Fatalf("escape leaked as text: %q", out)
	}
	if plain := renderPlain(t, src, 40); plain != "pre red text\n" {
		t.Fatalf("unexpected plain output %q", plain)
	}
}

func TestRenderRejectsBinary(t *testing.T) {
	_, err := NewRenderer(nil, 40).RenderBytes(context.Background(), []byte{'a', 0x00, 'b'})
	if !errors.Is(err, ErrBinaryInput) {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}
