package extract

import (
	"strings"

	"github.com/JonMunkholm/navsync/internal/catalog"
)

// keyvalue.go implements the fallback hypothesis: labels scattered through
// the grid with their values in the same cell, to the right, or below.

// rightOffsets are the horizontal distances tried for a value right of its
// label. Merged label cells often push the value two columns over.
var rightOffsets = []int{1, 2}

// scanKeyValue locates each field's label cell in row-major order and reads
// its value. A field is settled by the first label that yields a value.
func (e *Engine) scanKeyValue(g Grid) (map[catalog.Field]string, []Match) {
	values := make(map[catalog.Field]string)
	var matches []Match

	for _, fa := range e.m.fields {
	cells:
		for r := 0; r < g.Rows(); r++ {
			for c := 0; c < g.Cols(); c++ {
				cell := g.Cell(r, c)
				if cell.Kind != CellString || cell.IsBlank() {
					continue
				}
				raw := strings.TrimSpace(cell.Text)
				a, ok := e.m.labelAlias(normalizeLabel(raw), fa)
				if !ok {
					continue
				}
				v, kind, vr, vc, ok := e.locateValue(g, r, c, raw)
				if !ok {
					continue
				}
				if cleaned := CleanValue(v); cleaned != "" {
					values[fa.field] = cleaned
					matches = append(matches, newMatch(fa.field, r, c, a.text, kind, vr, vc))
					break cells
				}
			}
		}
	}
	return values, matches
}

// locateValue tries, in order: the remainder of a "label：value" cell, the
// cells one and two to the right, and the cell directly below.
func (e *Engine) locateValue(g Grid, r, c int, raw string) (string, MatchKind, int, int, bool) {
	for _, delim := range e.opts.LabelDelimiters {
		if !strings.Contains(raw, delim) {
			continue
		}
		parts := strings.SplitN(raw, delim, 2)
		if v := strings.TrimSpace(parts[1]); e.acceptValue(v) {
			return v, MatchSameCell, r, c, true
		}
	}

	for _, off := range rightOffsets {
		if c+off >= g.Cols() {
			break
		}
		if v, ok := e.candidate(g.Cell(r, c+off)); ok {
			return v, MatchRightOffset, r, c + off, true
		}
	}

	if r+1 < g.Rows() {
		if v, ok := e.candidate(g.Cell(r+1, c)); ok {
			return v, MatchBelowOffset, r + 1, c, true
		}
	}
	return "", 0, 0, 0, false
}

func (e *Engine) candidate(cell Cell) (string, bool) {
	if cell.IsBlank() {
		return "", false
	}
	v := strings.TrimSpace(cell.String())
	return v, e.acceptValue(v)
}

// acceptValue rejects blanks and anything the keyword rule says is a label,
// so two adjacent label cells do not capture each other.
func (e *Engine) acceptValue(v string) bool {
	if isBlankText(v) {
		return false
	}
	return !e.opts.KeywordRule.IsKeyword(v)
}
