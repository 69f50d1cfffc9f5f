package mdless

import (
	"regexp"
	"strings"

	"pkt.systems/mdless/internal/sgr"
	"pkt.systems/mdless/internal/table"
	"pkt.systems/mdless/internal/wrap"
)

var (
	blockMarker = regexp.MustCompile(`(?m)^(\x1b\[[\d;]*m)?[%~] ?`)
	blankRun    = regexp.MustCompile(`\n{3,}`)
)

const minLooseTableLines = 3

// cleanupTables formats runs of pipe-delimited lines that the parser did
// not recognize as tables, such as tables missing their separator row.
func (c *console) cleanupTables(text string) string {
	f := table.Formatter{
		Colors: table.Colors{
			Border:  c.color("table border"),
			Header:  c.color("table header"),
			Divider: c.color("table divider"),
			Body:    c.color("table color"),
		},
	}
	var (
		out   []string
		block []string
	)
	flush := func() {
		if len(block) >= minLooseTableLines {
			plain := make([]string, len(block))
			for i, line := range block {
				plain[i] = strings.TrimSpace(sgr.Strip(line))
			}
			joined := strings.Join(plain, "\n")
			if formatted := f.Format(joined); formatted != joined {
				for _, line := range strings.Split(formatted, "\n") {
					out = append(out, preformatMarker+line)
				}
				block = block[:0]
				return
			}
		}
		out = append(out, block...)
		block = block[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(sgr.Strip(line), "|") && !wrap.Preformatted(line) {
			block = append(block, line)
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()
	return strings.Join(out, "\n")
}

// finalize wraps every line, removes the block markers that protected
// preformatted lines from wrapping, and squeezes blank lines.
func (c *console) finalize(text string) (string, error) {
	text = c.cleanupTables(text)
	w := wrap.Wrapper{}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = w.Wrap(line, c.width)
	}
	text = blockMarker.ReplaceAllString(strings.Join(lines, "\n"), "$1")
	if !c.cfg.color {
		text = sgr.Strip(text)
	}
	lines = strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(sgr.Strip(line)) == "" {
			lines[i] = ""
		}
	}
	text = blankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	text = strings.TrimSpace(text)
	if strings.TrimSpace(sgr.Strip(text)) == "" {
		return "", ErrEmptyInput
	}
	if c.cfg.color {
		text += sgr.Reset
	}
	return text + "\n", nil
}
