// Package wrap reflows text to a column width, treating escape sequences as
// zero-width and carrying the active style across line breaks.
package wrap

import (
	"regexp"
	"strings"
	"unicode"

	"pkt.systems/mdless/internal/sgr"
)

// A rule run counts only at line start or after whitespace or a frame's
// closing bracket, so prose like foo-----bar still wraps.
var preformatted = regexp.MustCompile(`^([%~] |\s*>)|(^|[\s\]])[=\-]{5,}`)

// Wrapper reflows single lines of rendered text.
type Wrapper struct {
	// Measure returns the display width of a word. Nil means
	// sgr.VisibleLength.
	Measure func(string) int
}

// Preformatted reports whether a line carries a signature that must never be
// reflowed: a metadata marker, a blockquote marker, or a rule.
func Preformatted(line string) bool {
	return preformatted.MatchString(sgr.Strip(line))
}

// Wrap reflows text to width. Preformatted text and non-positive widths pass
// through unchanged.
func (w Wrapper) Wrap(text string, width int) string {
	if width <= 0 || Preformatted(text) {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	measure := w.Measure
	if measure == nil {
		measure = sgr.VisibleLength
	}
	leading := text[:len(text)-len(strings.TrimLeftFunc(text, unicode.IsSpace))]
	trailing := text[len(strings.TrimRightFunc(text, unicode.IsSpace)):]

	var (
		lines   []string
		line    strings.Builder
		emitted sgr.Tracker
	)
	line.WriteString(leading)
	lineWidth := measure(leading)
	lineHasWord := false
	for _, word := range words {
		ww := measure(word)
		if lineHasWord && lineWidth+1+ww > width {
			emitted.Feed(line.String())
			lines = append(lines, closeLine(line.String()))
			line.Reset()
			line.WriteString(emitted.Style())
			lineWidth = 0
			lineHasWord = false
		}
		if lineHasWord {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += ww
		lineHasWord = true
	}
	line.WriteString(trailing)
	lines = append(lines, closeLine(line.String()))
	return strings.Join(lines, "\n")
}

func closeLine(line string) string {
	if sgr.HasEscape(line) && !strings.HasSuffix(line, sgr.Reset) {
		return line + sgr.Reset
	}
	return line
}

// String wraps text with the default Wrapper.
func String(text string, width int) string {
	return Wrapper{}.Wrap(text, width)
}
