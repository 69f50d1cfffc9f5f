package mdless

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pkt.systems/mdless/internal/logger"
)

var (
	atxHeader   = regexp.MustCompile(`^(#{1,6})(?:[ \t]+(.*?))?(?:[ \t]+#+)?[ \t]*$`)
	setextH1    = regexp.MustCompile(`^={2,}\s*$`)
	setextH2    = regexp.MustCompile(`^-{2,}\s*$`)
	fenceOpener = regexp.MustCompile("^\\s{0,3}(`{3,}|~{3,})")
)

// Header is one document heading.
type Header struct {
	Level int
	Title string
}

// fenceTracker reports whether successive lines are inside a fenced block.
type fenceTracker struct {
	fence string
}

// step consumes line and reports whether it belongs to a fenced block,
// including the fence lines themselves.
func (f *fenceTracker) step(line string) bool {
	m := fenceOpener.FindStringSubmatch(line)
	if f.fence == "" {
		if m != nil {
			f.fence = m[1]
			return true
		}
		return false
	}
	if m != nil && m[1][0] == f.fence[0] && len(m[1]) >= len(f.fence) {
		f.fence = ""
	}
	return true
}

// setextToATX rewrites underlined headings as "#" headings so every later
// pass only has to recognize one form.
func setextToATX(src string) string {
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	var fences fenceTracker
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if fences.step(line) {
			out = append(out, line)
			continue
		}
		if i+1 < len(lines) && strings.TrimSpace(line) != "" && !atxHeader.MatchString(line) && !strings.Contains(line, "|") {
			next := lines[i+1]
			switch {
			case setextH1.MatchString(next):
				out = append(out, "# "+strings.TrimSpace(line))
				i++
				continue
			case setextH2.MatchString(next) && !isListLine(line):
				out = append(out, "## "+strings.TrimSpace(line))
				i++
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

var listLine = regexp.MustCompile(`^\s*([*+-]|\d+[.)])\s`)

func isListLine(line string) bool {
	return listLine.MatchString(line)
}

func parseHeader(line string) (Header, bool) {
	m := atxHeader.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	return Header{Level: len(m[1]), Title: strings.TrimSpace(m[2])}, true
}

// Headers lists the ATX and setext headings of src outside fenced blocks.
func Headers(src string) []Header {
	var (
		headers []Header
		fences  fenceTracker
	)
	for _, line := range strings.Split(setextToATX(src), "\n") {
		if fences.step(line) {
			continue
		}
		if h, ok := parseHeader(line); ok {
			headers = append(headers, h)
		}
	}
	return headers
}

// HeaderList formats the document outline. Levels are shifted so the
// shallowest heading is level 1, and a level never jumps more than one step
// deeper than the previous one.
func HeaderList(src string, theme *Theme, color bool) string {
	headers := Headers(src)
	if len(headers) == 0 {
		return ""
	}
	highest := 6
	for _, h := range headers {
		if h.Level < highest {
			highest = h.Level
		}
	}
	dim, title, reset := "", "", ""
	if color {
		dim, title, reset = theme.Color("link brackets"), theme.Color("h4 color"), theme.Color("text")
	}
	glyphs := []string{"", "- ", "+ ", "* "}
	var (
		b    strings.Builder
		last int
	)
	for i, h := range headers {
		level := h.Level - highest
		if level-1 > last {
			level = last + 1
		}
		last = level
		glyph := "  "
		if level < len(glyphs) {
			glyph = glyphs[level]
		}
		line := fmt.Sprintf("%2d: %s%s%s%s%s%s", i+1, dim, strings.Repeat("..", level), title, glyph, h.Title, reset)
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}
	return b.String()
}

// sectionMatcher decides whether a heading opens a requested section.
type sectionMatcher func(Header) bool

func newSectionMatcher(spec string, headers []Header) (sectionMatcher, bool) {
	if idx, err := strconv.Atoi(strings.TrimSpace(spec)); err == nil {
		if idx < 1 || idx > len(headers) {
			logger.Warn("section out of range", "section", idx, "headers", len(headers))
			return nil, false
		}
		want := strings.ToLower(headers[idx-1].Title)
		return func(h Header) bool { return strings.ToLower(h.Title) == want }, true
	}
	rx, err := regexp.Compile("(?i)" + spec)
	if err != nil {
		rx = regexp.MustCompile("(?i)" + regexp.QuoteMeta(spec))
	}
	return func(h Header) bool { return rx.MatchString(h.Title) }, true
}

// filterSections keeps only the requested sections. A section runs from the
// matching heading up to the next heading at the same or a shallower level.
func filterSections(src string, specs []string) string {
	if len(specs) == 0 {
		return src
	}
	headers := Headers(src)
	lines := strings.Split(src, "\n")
	var out []string
	for _, spec := range specs {
		match, ok := newSectionMatcher(spec, headers)
		if !ok {
			continue
		}
		var (
			fences    fenceTracker
			inSection bool
			topLevel  int
		)
		for _, line := range lines {
			fenced := fences.step(line)
			h, isHeader := parseHeader(line)
			if fenced || !isHeader {
				if inSection {
					out = append(out, line)
				}
				continue
			}
			if inSection {
				if h.Level < topLevel {
					break
				}
				out = append(out, line)
				continue
			}
			if match(h) {
				inSection = true
				topLevel = h.Level + 1
				out = append(out, line)
			}
		}
	}
	return strings.Join(out, "\n")
}
