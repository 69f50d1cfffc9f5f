package mdless

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
	// ErrEmptyInput reports a document that rendered to nothing visible.
	ErrEmptyInput = errors.New("empty output")
	// ErrSubprocess reports a helper program that was missing or failed.
	ErrSubprocess = errors.New("subprocess failed")
	// ErrStructuralMismatch reports unbalanced or unknown placeholder
	// markers.
	ErrStructuralMismatch = errors.New("structural mismatch")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput returns ErrBinaryInput if src contains NUL bytes or too many
// control characters. Invalid UTF-8 is not an error; it is scrubbed later.
func ValidateInput(src []byte) error {
	var total, control int
	for _, b := range src {
		total++
		if b == 0x00 {
			return ErrBinaryInput
		}
		if isControlByte(b) {
			control++
		}
	}
	if total >= minBinarySample && control*100 >= total*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

func isControlByte(b byte) bool {
	if b < 0x09 {
		return true
	}
	if b > 0x0D && b < 0x20 && b != 0x1B {
		return true
	}
	if b == 0x7F {
		return true
	}
	return false
}

func isControlRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' || r == 0x1B {
		return false
	}
	if r < 0x20 || r == 0x7F {
		return true
	}
	return false
}

func isMarkerRune(r rune) bool {
	return r >= markOpen && r <= '\uE003'
}

// sanitizeBytes copies src into dst dropping invalid UTF-8, control runes
// and the private-use runes reserved for placeholder markers. It returns the
// sanitized bytes and any trailing partial rune.
func sanitizeBytes(dst []byte, src []byte) ([]byte, []byte) {
	di := 0
	i := 0
	for i < len(src) {
		if !utf8.FullRune(src[i:]) {
			break
		}
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if size == 0 || i+size > len(src) {
			break
		}
		if isControlRune(r) || isMarkerRune(r) {
			i += size
			continue
		}
		copy(dst[di:], src[i:i+size])
		di += size
		i += size
	}
	return dst[:di], src[i:]
}

// Sanitize returns src as clean text with Unix line endings.
func Sanitize(src []byte) string {
	out, _ := sanitizeBytes(make([]byte, len(src)), src)
	text := string(out)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
