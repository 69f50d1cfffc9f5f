// Package table normalizes pipe-delimited tables into fixed-width bordered
// text with per-column alignment.
package table

import (
	"regexp"
	"strings"

	"pkt.systems/mdless/internal/sgr"
)

// Alignment is the horizontal alignment of a column.
type Alignment int

const (
	// AlignJustify is a column with no alignment colons.
	AlignJustify Alignment = iota
	AlignLeft
	AlignRight
	AlignCenter
)

var (
	separatorRow = regexp.MustCompile(`^[|: -]+$`)
	dividerRun   = regexp.MustCompile(`[:\-+]+`)
)

// Colors holds the escapes applied to each part of a rendered table. Empty
// values leave that part uncolored.
type Colors struct {
	Border  string
	Header  string
	Divider string
	Body    string
}

// Table is a parsed pipe table. Rows excludes the separator row.
type Table struct {
	Rows   [][]string
	Align  []Alignment
	Widths []int
}

// Formatter parses and renders tables.
type Formatter struct {
	// Measure returns the visible width of a cell. Nil means
	// sgr.VisibleLength.
	Measure func(string) int
	Colors  Colors
}

func (f Formatter) measure(s string) int {
	if f.Measure == nil {
		return sgr.VisibleLength(s)
	}
	return f.Measure(s)
}

// Parse reads a pipe table block. The row matching the separator pattern sets
// column alignment; every other non-blank row is data. Short rows are padded
// with empty cells.
func (f Formatter) Parse(text string) *Table {
	t := &Table{}
	var separator []string
	cols := 0
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		row := strings.TrimSpace(raw)
		if row == "" {
			continue
		}
		cells := splitRow(row)
		if isSeparator(row) {
			separator = cells
		} else {
			t.Rows = append(t.Rows, cells)
		}
		if len(cells) > cols {
			cols = len(cells)
		}
	}
	align := make([]Alignment, cols)
	for i := range align {
		align[i] = AlignLeft
		if i < len(separator) {
			align[i] = alignmentOf(separator[i])
		}
	}
	t = f.Build(t.Rows, align)
	for i, cell := range separator {
		if w := f.measure(cell); w > t.Widths[i] {
			t.Widths[i] = w
		}
	}
	return t
}

// Build assembles a Table from already split cells. Rows are padded to the
// widest row.
func (f Formatter) Build(rows [][]string, align []Alignment) *Table {
	cols := len(align)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	t := &Table{Align: make([]Alignment, cols), Widths: make([]int, cols)}
	for i := range t.Align {
		t.Align[i] = AlignLeft
		if i < len(align) {
			t.Align[i] = align[i]
		}
	}
	for _, row := range rows {
		padded := make([]string, cols)
		copy(padded, row)
		for i, cell := range padded {
			if w := f.measure(cell); w > t.Widths[i] {
				t.Widths[i] = w
			}
		}
		t.Rows = append(t.Rows, padded)
	}
	return t
}

func isSeparator(row string) bool {
	return separatorRow.MatchString(row) && strings.Contains(row, "-")
}

func splitRow(row string) []string {
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	cells := strings.Split(row, "|")
	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

func alignmentOf(cell string) Alignment {
	cell = strings.TrimSpace(cell)
	left := strings.HasPrefix(cell, ":")
	right := strings.HasSuffix(cell, ":") && len(cell) > 1
	switch {
	case left && right:
		return AlignCenter
	case right:
		return AlignRight
	case left:
		return AlignLeft
	default:
		return AlignJustify
	}
}

// Format renders a pipe table block. Blocks with fewer than two data rows are
// returned unchanged so prose containing a stray pipe survives.
func (f Formatter) Format(text string) string {
	t := f.Parse(text)
	if len(t.Rows) < 2 {
		return text
	}
	return f.Render(t)
}

// Render draws t with borders, a header separator, and theme colors.
func (f Formatter) Render(t *Table) string {
	border := f.border(t)
	lines := make([]string, 0, len(t.Rows)+3)
	lines = append(lines, f.colorBorder(border))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for c, cell := range row {
			cells[c] = f.pad(cell, t.Align[c], t.Widths[c])
		}
		line := "| " + strings.Join(cells, " | ") + " |"
		if i == 0 {
			lines = append(lines, f.colorRow(line, f.Colors.Header))
			lines = append(lines, f.colorSeparator(f.headerSeparator(t)))
			continue
		}
		lines = append(lines, f.colorRow(line, f.Colors.Body))
	}
	lines = append(lines, f.colorBorder(border))
	return strings.Join(lines, "\n")
}

func (f Formatter) pad(cell string, align Alignment, width int) string {
	gap := width - f.measure(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func separatorCell(width int, align Alignment) string {
	dashes := strings.Repeat("-", width)
	switch align {
	case AlignLeft:
		return ":" + dashes + "-"
	case AlignRight:
		return "-" + dashes + ":"
	case AlignCenter:
		return ":" + dashes + ":"
	default:
		return "-" + dashes + "-"
	}
}

func (f Formatter) headerSeparator(t *Table) string {
	cells := make([]string, len(t.Widths))
	for i, w := range t.Widths {
		cells[i] = separatorCell(w, t.Align[i])
	}
	return "|" + strings.Join(cells, "|") + "|"
}

func (f Formatter) border(t *Table) string {
	cells := make([]string, len(t.Widths))
	for i, w := range t.Widths {
		cells[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(cells, "+") + "+"
}

func (f Formatter) colored() bool {
	c := f.Colors
	return c.Border != "" || c.Header != "" || c.Divider != "" || c.Body != ""
}

func (f Formatter) colorBorder(line string) string {
	if !f.colored() {
		return line
	}
	return f.Colors.Border + line + sgr.Reset
}

func (f Formatter) colorRow(line, text string) string {
	if !f.colored() {
		return line
	}
	return text + strings.ReplaceAll(line, "|", f.Colors.Border+"|"+text) + sgr.Reset
}

func (f Formatter) colorSeparator(line string) string {
	if !f.colored() {
		return line
	}
	line = dividerRun.ReplaceAllStringFunc(line, func(run string) string {
		return f.Colors.Divider + run + f.Colors.Border
	})
	return f.Colors.Border + line + sgr.Reset
}
