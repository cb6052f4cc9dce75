package display

import (
	"strings"
	"unicode/utf8"
)

// Table renders an aligned text table. Rows can carry their own style.
type Table struct {
	headers []string
	rows    [][]string
	styles  map[int]Style
	// Indent prefixes every line.
	Indent string
}

// NewTable creates a new table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, styles: map[int]Style{}, Indent: "  "}
}

// AddRow appends a row and returns its index.
func (t *Table) AddRow(values ...string) int {
	t.rows = append(t.rows, values)
	return len(t.rows) - 1
}

// Highlight renders row idx with the accent style.
func (t *Table) Highlight(idx int) { t.StyleRow(idx, Accent) }

// StyleRow renders row idx with s.
func (t *Table) StyleRow(idx int, s Style) { t.styles[idx] = s }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Render produces the formatted table string with leading indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(t.Indent + Bold(formatRow(t.headers, widths)) + "\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim(t.Indent+strings.Join(sep, "  ")) + "\n")

	for i, row := range t.rows {
		s, ok := t.styles[i]
		if !ok {
			s = Plain
		}
		sb.WriteString(t.Indent + s(formatRow(row, widths)) + "\n")
	}
	return sb.String()
}

// formatRow pads cells to widths, counting runes so box characters and
// Arabic names align.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell))
	}
	return strings.Join(parts, "  ")
}
