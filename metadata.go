package mdless

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"pkt.systems/mdless/internal/logger"
)

const (
	nbsp            = "\u00a0"
	maxMMDLines     = 20
	metadataMarker  = "% "
	preformatMarker = "~ "
)

var (
	mmdFirstLine = regexp.MustCompile(`^[\w ]+:\s+\S+`)
	metaKeySpace = regexp.MustCompile(`^(.*?:)[ \t]+(\S)`)
)

// metadata is a header block lifted off the top of a document.
type metadata struct {
	lines []string
	// fenced is true for YAML style blocks whose delimiter lines are kept.
	fenced bool
}

// extractMetadata splits a leading front matter or MultiMarkdown header off
// src. ok is false when src has neither.
func extractMetadata(src string) (metadata, string, bool) {
	if meta, rest, ok := extractFrontMatter([]byte(src)); ok {
		return meta, rest, true
	}
	return extractMMD(src)
}

func extractFrontMatter(src []byte) (metadata, string, bool) {
	openLine, openNext, ok := nextLine(src, 0, true)
	if !ok {
		return metadata{}, "", false
	}
	delim, isFrontMatter := parseOpeningFrontMatterDelimiter(openLine)
	if !isFrontMatter {
		return metadata{}, "", false
	}
	secondLine, secondNext, ok := nextLine(src, openNext, true)
	if !ok || !frontMatterMetadataLikely(secondLine) {
		return metadata{}, "", false
	}
	closeAt, closeNext, found := findClosingFrontMatterDelimiter(src, secondNext, delim)
	if !found {
		return metadata{}, "", false
	}
	body := string(src[openNext:closeAt])
	if bytes.Equal(delim, []byte("---")) {
		var probe map[string]any
		if err := yaml.Unmarshal([]byte(body), &probe); err != nil {
			logger.Warn("front matter is not valid YAML", "err", err)
		}
	}
	lines := []string{string(delim)}
	lines = append(lines, strings.Split(strings.TrimRight(body, "\n"), "\n")...)
	lines = append(lines, string(delim))
	return metadata{lines: lines, fenced: true}, string(src[closeNext:]), true
}

func extractMMD(src string) (metadata, string, bool) {
	first, _, _ := strings.Cut(src, "\n")
	if !mmdFirstLine.MatchString(first) {
		return metadata{}, "", false
	}
	block, rest, _ := strings.Cut(src, "\n\n")
	lines := strings.Split(block, "\n")
	if len(lines) > maxMMDLines {
		return metadata{}, "", false
	}
	for _, line := range lines {
		if !strings.Contains(line, ":") && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			return metadata{}, "", false
		}
	}
	return metadata{lines: lines}, rest, true
}

// render draws the block as "% " marked lines padded to a common width.
func (m metadata) render(c *console) string {
	longest := 0
	for _, line := range m.lines {
		if w := visibleWidth(line); w > longest {
			longest = w
		}
	}
	if longest < c.width || c.width <= 0 {
		longest++
	} else {
		longest = c.width
	}
	out := make([]string, 0, len(m.lines)+1)
	for i, line := range m.lines {
		if m.fenced && (i == 0 || i == len(m.lines)-1) {
			out = append(out, metadataMarker+c.color("metadata marker")+strings.Repeat("%", longest)+c.xc())
			continue
		}
		line = metaKeySpace.ReplaceAllString(line, "$1 $2")
		pad := longest - visibleWidth(strings.TrimSpace(line))
		if pad < 0 {
			pad = 0
		}
		out = append(out, metadataMarker+c.color("metadata color")+line+strings.Repeat(nbsp, pad)+c.xc())
	}
	if !m.fenced {
		out = append(out, metadataMarker+c.color("metadata color")+strings.Repeat(nbsp, longest)+c.xc())
	}
	return strings.Join(out, "\n") + "\n\n"
}

func nextLine(src []byte, start int, eof bool) ([]byte, int, bool) {
	if start > len(src) {
		return nil, 0, false
	}
	if start == len(src) {
		if eof {
			return src[start:], start, true
		}
		return nil, 0, false
	}
	i := bytes.IndexByte(src[start:], '\n')
	if i < 0 {
		if !eof {
			return nil, 0, false
		}
		return trimCR(src[start:]), len(src), true
	}
	lineEnd := start + i
	return trimCR(src[start:lineEnd]), lineEnd + 1, true
}

func parseOpeningFrontMatterDelimiter(line []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(trimBOM(line))
	switch {
	case bytes.Equal(trimmed, []byte("---")):
		return []byte("---"), true
	case bytes.Equal(trimmed, []byte("+++")):
		return []byte("+++"), true
	case bytes.Equal(trimmed, []byte(";;;")):
		return []byte(";;;"), true
	default:
		return nil, false
	}
}

func frontMatterMetadataLikely(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	if bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("[")) {
		return true
	}
	if bytes.Contains(trimmed, []byte(":")) || bytes.Contains(trimmed, []byte("=")) {
		return true
	}
	return false
}

// findClosingFrontMatterDelimiter returns the offset of the closing line and
// of the line after it. YAML blocks may also close with "...".
func findClosingFrontMatterDelimiter(src []byte, start int, delim []byte) (int, int, bool) {
	for idx := start; idx < len(src); {
		line, next, ok := nextLine(src, idx, true)
		if !ok {
			return 0, 0, false
		}
		trimmed := bytes.TrimSpace(line)
		if bytes.Equal(trimmed, delim) || (bytes.Equal(delim, []byte("---")) && bytes.Equal(trimmed, []byte("..."))) {
			return idx, next, true
		}
		if next == idx {
			return 0, 0, false
		}
		idx = next
	}
	return 0, 0, false
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
