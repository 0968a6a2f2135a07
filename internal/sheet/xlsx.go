package sheet

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/navsync/internal/extract"
)

// dateTimeLayout renders date-styled serials so the normalizer can read them.
const dateTimeLayout = "2006-01-02 15:04:05"

func loadXLSX(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	styles := newStyleCache(f)
	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}

		cells := make([][]extract.Cell, len(rows))
		for r, row := range rows {
			cells[r] = make([]extract.Cell, len(row))
			for c, raw := range row {
				cells[r][c] = xlsxCell(f, styles, name, r, c, raw)
			}
		}
		sheets = append(sheets, Sheet{Name: name, Grid: extract.NewGrid(cells)})
	}
	return sheets, nil
}

// xlsxCell types one raw cell. Only cells stored as numbers become Number
// cells; text such as "000123" stays text.
func xlsxCell(f *excelize.File, styles *styleCache, sheet string, r, c int, raw string) extract.Cell {
	if strings.TrimSpace(raw) == "" {
		return extract.Blank()
	}

	axis, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return extract.Str(raw)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return extract.Str(raw)
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
	default:
		return extract.Str(raw)
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return extract.Str(raw)
	}

	if styles.isDate(sheet, axis) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return extract.Str(t.Format(dateTimeLayout))
		}
	}
	return extract.Num(n)
}

// styleCache memoizes whether a style id carries a date number format.
type styleCache struct {
	f     *excelize.File
	dates map[int]bool
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, dates: make(map[int]bool)}
}

func (s *styleCache) isDate(sheet, axis string) bool {
	id, err := s.f.GetCellStyle(sheet, axis)
	if err != nil || id == 0 {
		return false
	}
	if v, ok := s.dates[id]; ok {
		return v
	}

	style, err := s.f.GetStyle(id)
	isDate := err == nil && style != nil && isDateFormat(style.NumFmt, style.CustomNumFmt)
	s.dates[id] = isDate
	return isDate
}

// isDateFormat recognizes the built-in date and time formats, including the
// CJK ones, and custom codes with a year or day token.
func isDateFormat(numFmt int, custom *string) bool {
	if custom != nil && *custom != "" {
		return customIsDate(*custom)
	}
	switch {
	case numFmt >= 14 && numFmt <= 22,
		numFmt >= 27 && numFmt <= 36,
		numFmt >= 45 && numFmt <= 47,
		numFmt >= 50 && numFmt <= 58:
		return true
	}
	return false
}

func customIsDate(code string) bool {
	var b strings.Builder
	depth := 0
	quoted := false
	for _, r := range code {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "yd")
}
