// Package sgr encodes semantic style tokens into ANSI SGR sequences, measures
// escaped text, and folds already-emitted sequences back into the style that
// is still in effect at the end of a piece of text.
package sgr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Reset clears every attribute and color.
const Reset = "\x1b[0m"

const csi = "\x1b["

var sgrPattern = regexp.MustCompile("\x1b\\[([0-9;:]*)m")

var namedCodes = map[string]int{
	"reset":         0,
	"x":             0,
	"bold":          1,
	"b":             1,
	"dark":          2,
	"d":             2,
	"italic":        3,
	"i":             3,
	"underline":     4,
	"underscore":    4,
	"u":             4,
	"blink":         5,
	"rapid_blink":   6,
	"negative":      7,
	"r":             7,
	"concealed":     8,
	"strikethrough": 9,
	"black":         30,
	"red":           31,
	"green":         32,
	"yellow":        33,
	"blue":          34,
	"magenta":       35,
	"cyan":          36,
	"white":         37,
	"on_black":      40,
	"on_red":        41,
	"on_green":      42,
	"on_yellow":     43,
	"on_blue":       44,
	"on_magenta":    45,
	"on_cyan":       46,
	"on_white":      47,

	"intense_black":      90,
	"intense_red":        91,
	"intense_green":      92,
	"intense_yellow":     93,
	"intense_blue":       94,
	"intense_magenta":    95,
	"intense_cyan":       96,
	"intense_white":      97,
	"on_intense_black":   100,
	"on_intense_red":     101,
	"on_intense_green":   102,
	"on_intense_yellow":  103,
	"on_intense_blue":    104,
	"on_intense_magenta": 105,
	"on_intense_cyan":    106,
	"on_intense_white":   107,
}

// Encode maps style tokens to a single SGR escape. Besides the named
// attributes and 16 colors it accepts cNNN / on_cNNN for the 256-color
// palette and #rrggbb / on_#rrggbb for truecolor. Unknown tokens are dropped;
// when nothing is recognized the result is empty.
func Encode(tokens []string) string {
	params := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if p, ok := tokenParams(tok); ok {
			params = append(params, p)
		}
	}
	if len(params) == 0 {
		return ""
	}
	return csi + strings.Join(params, ";") + "m"
}

// EncodeSpec encodes a whitespace separated token string such as "b u blue".
func EncodeSpec(spec string) string {
	return Encode(strings.Fields(spec))
}

func tokenParams(tok string) (string, bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if tok == "" {
		return "", false
	}
	if code, ok := namedCodes[tok]; ok {
		return strconv.Itoa(code), true
	}
	base := "38"
	if rest, ok := strings.CutPrefix(tok, "on_"); ok {
		base = "48"
		tok = rest
	}
	switch {
	case strings.HasPrefix(tok, "#"):
		r, g, b, ok := parseHex(tok[1:])
		if !ok {
			return "", false
		}
		return base + ";2;" + strconv.Itoa(r) + ";" + strconv.Itoa(g) + ";" + strconv.Itoa(b), true
	case strings.HasPrefix(tok, "c"):
		n, err := strconv.Atoi(tok[1:])
		if err != nil || n < 0 || n > 255 {
			return "", false
		}
		return base + ";5;" + strconv.Itoa(n), true
	}
	return "", false
}

func parseHex(s string) (int, int, int, bool) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

// Strip removes every escape sequence, including OSC hyperlinks and marks.
func Strip(text string) string {
	return ansi.Strip(text)
}

// VisibleLength is the display width of text once escapes are removed.
func VisibleLength(text string) int {
	return ansi.StringWidth(text)
}

// HasEscape reports whether text carries at least one SGR sequence.
func HasEscape(text string) bool {
	return sgrPattern.MatchString(text)
}

// LastActiveStyle folds every SGR sequence in text and returns one escape
// that re-establishes whatever is still visually active at its end. The
// result always starts with a reset so it replaces rather than adds. Text
// without SGR sequences yields "".
func LastActiveStyle(text string) string {
	var t Tracker
	t.Feed(text)
	return t.Style()
}

// Tracker folds text incrementally. Feeding a document piece by piece gives
// the same Style as LastActiveStyle of the concatenation. Sequences split
// across two Feed calls are not recognized.
type Tracker struct {
	st state
}

// Feed folds every SGR sequence in text.
func (t *Tracker) Feed(text string) {
	for _, m := range sgrPattern.FindAllStringSubmatch(text, -1) {
		t.st.apply(splitParams(m[1]))
	}
}

// Style returns the escape for the folded state, "" if nothing was seen.
func (t *Tracker) Style() string {
	return t.st.escape()
}

type state struct {
	seen  bool
	attrs [10]bool
	fg    string
	bg    string
}

func (s *state) reset() {
	s.attrs = [10]bool{}
	s.fg = ""
	s.bg = ""
}

func (s *state) apply(params []string) {
	s.seen = true
	if len(params) == 0 {
		s.reset()
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		if p == "" {
			s.reset()
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			s.reset()
		case n >= 1 && n <= 9:
			s.attrs[n] = true
		case n == 21 || n == 22:
			s.attrs[1] = false
			s.attrs[2] = false
		case n == 23:
			s.attrs[3] = false
		case n == 24:
			s.attrs[4] = false
		case n == 25:
			s.attrs[5] = false
			s.attrs[6] = false
		case n == 27:
			s.attrs[7] = false
		case n == 28:
			s.attrs[8] = false
		case n == 29:
			s.attrs[9] = false
		case (n >= 30 && n <= 37) || (n >= 90 && n <= 97):
			s.fg = p
		case n == 39:
			s.fg = ""
		case (n >= 40 && n <= 47) || (n >= 100 && n <= 107):
			s.bg = p
		case n == 49:
			s.bg = ""
		case n == 38 || n == 48:
			value, consumed := extended(params, i)
			i += consumed
			if value == "" {
				continue
			}
			if n == 38 {
				s.fg = value
			} else {
				s.bg = value
			}
		}
	}
}

func (s *state) escape() string {
	if !s.seen {
		return ""
	}
	parts := []string{"0"}
	for code := 1; code < len(s.attrs); code++ {
		if s.attrs[code] {
			parts = append(parts, strconv.Itoa(code))
		}
	}
	if s.fg != "" {
		parts = append(parts, s.fg)
	}
	if s.bg != "" {
		parts = append(parts, s.bg)
	}
	return csi + strings.Join(parts, ";") + "m"
}

// extended reads a 38/48 extended color starting at params[i] and returns the
// joined value plus how many extra params it used.
func extended(params []string, i int) (string, int) {
	if i+1 >= len(params) {
		return "", 0
	}
	switch params[i+1] {
	case "5":
		if i+2 < len(params) {
			return strings.Join(params[i:i+3], ";"), 2
		}
	case "2":
		if i+4 < len(params) {
			return strings.Join(params[i:i+5], ";"), 4
		}
	}
	return "", 1
}

func splitParams(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ':' })
}

// Blackout forces bg under every line of text. Embedded sequences that reset
// or replace the background are rewritten to put bg back immediately.
func Blackout(text, bg string) string {
	if bg == "" {
		return text
	}
	m := sgrPattern.FindStringSubmatch(bg)
	if m == nil {
		return text
	}
	bgParams := splitParams(m[1])
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = sgrPattern.ReplaceAllStringFunc(line, func(seq string) string {
			return rewriteBackground(seq, bgParams)
		})
		lines[i] = bg + line
	}
	return strings.Join(lines, "\n")
}

func rewriteBackground(seq string, bgParams []string) string {
	m := sgrPattern.FindStringSubmatch(seq)
	params := splitParams(m[1])
	if len(params) == 0 {
		params = []string{"0"}
	}
	out := make([]string, 0, len(params)+len(bgParams))
	touched := false
	for i := 0; i < len(params); i++ {
		p := params[i]
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			out = append(out, "0")
			touched = true
		case (n >= 40 && n <= 47) || (n >= 100 && n <= 107) || n == 49:
			touched = true
		case n == 48:
			_, consumed := extended(params, i)
			i += consumed
			touched = true
		case n == 38:
			value, consumed := extended(params, i)
			i += consumed
			if value != "" {
				out = append(out, value)
			}
		default:
			out = append(out, p)
		}
	}
	if touched {
		out = append(out, bgParams...)
	}
	if len(out) == 0 {
		return ""
	}
	return csi + strings.Join(out, ";") + "m"
}
