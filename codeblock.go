package mdless

import (
	"fmt"
	"strings"

	"pkt.systems/mdless/internal/logger"
	"pkt.systems/mdless/internal/sgr"
)

const tabWidth = 4

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var (
		b   strings.Builder
		col int
	)
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// highlight returns the colored lines of code, or the plain lines when
// highlighting is off or fails.
func (c *console) highlight(code, lang string) []string {
	plain := strings.Split(code, "\n")
	if !c.cfg.syntaxHighlight || !c.cfg.color {
		return plain
	}
	out, err := c.cfg.codeHighlighter(c.theme.HighlightStyle(lang)).Highlight(c.ctx, code, lang)
	if err != nil {
		logger.Warn("syntax highlighting unavailable", "lang", lang, "err", fmt.Errorf("%w: %v", ErrSubprocess, err))
		return plain
	}
	lines := strings.Split(out, "\n")
	if len(lines) != len(plain) {
		logger.Debug("highlighter changed line count", "lang", lang, "want", len(plain), "got", len(lines))
		return plain
	}
	return lines
}

func (c *console) BlockCode(code, lang string) string {
	lang = strings.TrimSpace(lang)
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	longest := 0
	for i, line := range lines {
		lines[i] = expandTabs(line)
		if w := visibleWidth(lines[i]); w > longest {
			longest = w
		}
	}
	longest += 4
	if c.width > 0 && longest > c.width {
		longest = c.width
	}
	colored := c.highlight(strings.Join(lines, "\n"), lang)

	bg := sgr.EncodeSpec(c.theme.CodeBlock.BG)
	marker := c.color("code_block marker") + "> "
	body := make([]string, len(colored))
	for i, line := range colored {
		row := sgr.Blackout(marker+c.color("code_block color")+line, bg)
		pad := longest - 2 - visibleWidth(lines[i])
		if pad < 0 {
			pad = 0
		}
		body[i] = row + sgr.Reset + c.color("code_block eol") + strings.Repeat(nbsp, pad) + sgr.Reset
	}

	border := c.color("code_block border")
	top := border + strings.Repeat("-", longest)
	if lang != "" {
		label := truncateWithEllipsis(lang, longest-8)
		top = border + "--[ " + c.color("code_block title") + label + border + " ]"
		if rest := longest - visibleWidth(sgr.Strip(top)); rest > 0 {
			top += strings.Repeat("-", rest)
		}
	}
	bottom := border + strings.Repeat("-", longest)
	return "\n\n" + top + c.xc() + "\n" + strings.Join(body, "\n") + "\n" + bottom + c.xc() + "\n\n"
}
