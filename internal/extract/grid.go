package extract

import (
	"strconv"
	"strings"
)

// CellKind distinguishes blank, text and numeric cells.
type CellKind int

const (
	CellBlank CellKind = iota
	CellString
	CellNumber
)

// Cell is one raw spreadsheet value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Blank returns an empty cell.
func Blank() Cell { return Cell{} }

// Str returns a text cell. Whitespace-only text is still a string cell;
// IsBlank treats it as blank.
func Str(s string) Cell { return Cell{Kind: CellString, Text: s} }

// Num returns a numeric cell.
func Num(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }

// String renders the cell the way a spreadsheet loader without header
// inference would: numbers in shortest form, blanks as "".
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// IsBlank reports whether the cell carries no usable value.
func (c Cell) IsBlank() bool {
	if c.Kind == CellNumber {
		return false
	}
	return isBlankText(c.Text)
}

// isBlankText treats whitespace and the "nan" placeholder that dataframe
// exports leave behind as blank.
func isBlankText(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}

// Grid is a read-only, rectangular cell matrix indexed from zero.
type Grid interface {
	Rows() int
	Cols() int
	// Cell returns the cell at (row, col); out-of-range positions are blank.
	Cell(row, col int) Cell
}

// matrix is the Grid implementation returned by NewGrid.
type matrix struct {
	cells [][]Cell
	cols  int
}

// NewGrid copies rows into an immutable grid. Ragged rows are padded with
// blank cells to the widest row.
func NewGrid(rows [][]Cell) Grid {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	cells := make([][]Cell, len(rows))
	for i, r := range rows {
		row := make([]Cell, width)
		copy(row, r)
		cells[i] = row
	}
	return &matrix{cells: cells, cols: width}
}

// StringGrid builds a grid of text cells; empty strings become blank cells.
func StringGrid(rows [][]string) Grid {
	out := make([][]Cell, len(rows))
	for i, r := range rows {
		row := make([]Cell, len(r))
		for j, v := range r {
			if v != "" {
				row[j] = Str(v)
			}
		}
		out[i] = row
	}
	return NewGrid(out)
}

func (m *matrix) Rows() int { return len(m.cells) }
func (m *matrix) Cols() int { return m.cols }

func (m *matrix) Cell(row, col int) Cell {
	if row < 0 || row >= len(m.cells) || col < 0 || col >= m.cols {
		return Cell{}
	}
	return m.cells[row][col]
}
