package helpfile

import "strings"

// TableFlags mirrors helpfile.h's TABLE_* bits governing table_send's
// layout. TABLE_NO_FREE is a C memory-management concern with no Go
// analogue and has no corresponding bit here.
type TableFlags uint8

const (
	TableRepeatHeaders TableFlags = 1 << iota
	TablePadLeft
	TableRepeatRows
	TableNoHeaders
)

func (f TableFlags) has(bit TableFlags) bool { return f&bit != 0 }

// DefaultTableSize is table_send's fallback width when neither an
// explicit size nor a recipient's preferred width is available.
const DefaultTableSize = 80

// Table is a helpfile_table: an optional header row plus a grid of
// columns, rendered by packing as many column-sets per line as fit.
type Table struct {
	Headers []string
	Rows    [][]string
	Flags   TableFlags
}

// Render lays the table out at the given maximum line width, returning
// the finished lines, matching table_send's column-width and row-packing
// algorithm.
func (t *Table) Render(width int) []string {
	if width <= 0 {
		width = DefaultTableSize
	}
	if width > MaxLineSize {
		width = MaxLineSize
	}

	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if cols == 0 {
		return nil
	}

	colWidth := make([]int, cols)
	if !t.Flags.has(TableNoHeaders) {
		for j := 0; j < cols && j < len(t.Headers); j++ {
			colWidth[j] = len(t.Headers[j])
		}
	}
	for _, row := range t.Rows {
		for j := 0; j < cols && j < len(row); j++ {
			if len(row[j]) > colWidth[j] {
				colWidth[j] = len(row[j])
			}
		}
	}

	totalWidth := cols // one separating space per column
	for _, w := range colWidth {
		totalWidth += w
	}

	reps := 1
	if t.Flags.has(TableRepeatRows) && width > totalWidth {
		if r := width / totalWidth; r > 1 {
			reps = r
		}
	}

	formatSet := func(cells []string) string {
		var b strings.Builder
		for j := 0; j < cols; j++ {
			var cell string
			if j < len(cells) {
				cell = cells[j]
			}
			pad := colWidth[j] - len(cell)
			if pad < 0 {
				pad = 0
			}
			if t.Flags.has(TablePadLeft) {
				b.WriteString(strings.Repeat(" ", pad))
				b.WriteString(cell)
			} else {
				b.WriteString(cell)
				if j < cols-1 {
					b.WriteString(strings.Repeat(" ", pad))
				}
			}
			if j < cols-1 {
				b.WriteByte(' ')
			}
		}
		return b.String()
	}

	var out []string
	if !t.Flags.has(TableNoHeaders) {
		headerReps := 1
		if t.Flags.has(TableRepeatHeaders) {
			headerReps = reps
		}
		var b strings.Builder
		for r := 0; r < headerReps; r++ {
			if r > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatSet(t.Headers))
		}
		out = append(out, b.String())
	}

	for i := 0; i < len(t.Rows); {
		var b strings.Builder
		for r := 0; r < reps && i < len(t.Rows); r, i = r+1, i+1 {
			if r > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatSet(t.Rows[i]))
		}
		out = append(out, b.String())
	}
	return out
}
