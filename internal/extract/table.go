package extract

import "github.com/JonMunkholm/navsync/internal/catalog"

// table.go implements the conventional-table hypothesis: one header row near
// the top of the grid, then any number of data rows.

// tableRow is one accepted data row before normalization.
type tableRow struct {
	row    int
	values map[catalog.Field]string
}

type tableResult struct {
	headerRow int
	matches   []Match
	rows      []tableRow
}

// findHeader returns the first row within the scan window whose cells name at
// least MinHeaderFields distinct fields. The threshold keeps a one-field
// caption such as "资产净值报告" from being taken as a header.
func (e *Engine) findHeader(g Grid) (int, bool) {
	limit := e.opts.HeaderScanRows
	if g.Rows() < limit {
		limit = g.Rows()
	}

	for r := 0; r < limit; r++ {
		cells := normalizedRow(g, r)
		matched := 0
		for _, fa := range e.m.fields {
			for _, cell := range cells {
				if _, ok := e.m.headerAlias(cell, fa); ok {
					matched++
					break
				}
			}
		}
		if matched >= e.opts.MinHeaderFields {
			return r, true
		}
	}
	return -1, false
}

// headerColumns binds each field to the first header column that one of its
// aliases (longest first) claims. A column is bound to at most one field.
func (e *Engine) headerColumns(g Grid, h int) (map[catalog.Field]int, []Match) {
	cells := normalizedRow(g, h)
	columns := make(map[catalog.Field]int)
	taken := make(map[int]bool)
	var matches []Match

	for _, fa := range e.m.fields {
	aliases:
		for _, a := range fa.aliases {
			for col, cell := range cells {
				if taken[col] || cell == "" {
					continue
				}
				if got, ok := e.m.headerAlias(cell, fa); !ok || got.text != a.text {
					continue
				}
				columns[fa.field] = col
				taken[col] = true
				matches = append(matches, newMatch(fa.field, h, col, a.text, MatchTableColumn, h, col))
				break aliases
			}
		}
	}
	return columns, matches
}

// extractTable runs the table hypothesis. It reports false when no header
// row is found; a found header with no usable rows returns true and no rows.
func (e *Engine) extractTable(g Grid) (tableResult, bool) {
	h, ok := e.findHeader(g)
	if !ok {
		return tableResult{headerRow: -1}, false
	}

	columns, matches := e.headerColumns(g, h)
	res := tableResult{headerRow: h, matches: matches}

	for r := h + 1; r < g.Rows(); r++ {
		if rowIsBlank(g, r) {
			continue
		}

		values := make(map[catalog.Field]string, len(columns))
		for _, fa := range e.m.fields {
			col, bound := columns[fa.field]
			if !bound {
				continue
			}
			cell := g.Cell(r, col)
			if cell.IsBlank() {
				continue
			}
			if v := CleanValue(cell.String()); v != "" {
				values[fa.field] = v
			}
		}

		if coreCount(values) >= e.opts.MinCoreFields {
			res.rows = append(res.rows, tableRow{row: r, values: values})
		}
	}
	return res, true
}

func normalizedRow(g Grid, r int) []string {
	cells := make([]string, g.Cols())
	for c := range cells {
		cell := g.Cell(r, c)
		if cell.Kind == CellString {
			cells[c] = normalizeLabel(cell.Text)
		}
	}
	return cells
}

func rowIsBlank(g Grid, r int) bool {
	for c := 0; c < g.Cols(); c++ {
		if !g.Cell(r, c).IsBlank() {
			return false
		}
	}
	return true
}

// coreCount counts the core fields present in values.
func coreCount(values map[catalog.Field]string) int {
	n := 0
	for _, f := range catalog.CoreFields {
		if values[f] != "" {
			n++
		}
	}
	return n
}
