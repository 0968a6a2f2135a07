package sheet

import (
	"bytes"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/navsync/internal/extract"
)

// BIFF record types that carry a number.
const (
	xlsNumber = "*record.Number"
	xlsRk     = "*record.Rk"
)

// firstCustomFormat is the lowest format index a workbook defines itself.
const firstCustomFormat = 164

// loadXLS decodes a legacy BIFF workbook.
func loadXLS(data []byte) ([]Sheet, error) {
	book, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	dates := bookDates(&book)
	var sheets []Sheet
	for i := 0; i < book.GetNumberSheets(); i++ {
		ws, err := book.GetSheet(i)
		if err != nil {
			return nil, err
		}
		if ws == nil {
			continue
		}

		var cells [][]extract.Cell
		for _, row := range ws.GetRows() {
			cols := row.GetCols()
			line := make([]extract.Cell, len(cols))
			for c, col := range cols {
				line[c] = xlsCell(col, dates)
			}
			cells = append(cells, line)
		}
		sheets = append(sheets, Sheet{Name: ws.GetName(), Grid: extract.NewGrid(cells)})
	}
	return sheets, nil
}

// dateStyle reports whether an XF index carries a date number format.
type dateStyle func(xf int) bool

// bookDates resolves XF indexes through the workbook's format table,
// memoizing per index.
func bookDates(book *xls.Workbook) dateStyle {
	seen := make(map[int]bool)
	return func(xfIndex int) bool {
		if v, ok := seen[xfIndex]; ok {
			return v
		}
		xf := book.GetXFbyIndex(xfIndex)
		idx := xf.GetFormatIndex()

		var code string
		if idx >= firstCustomFormat {
			format := book.GetFormatByIndex(idx)
			code = format.String()
		}
		v := isDateFormat(idx, &code)
		seen[xfIndex] = v
		return v
	}
}

// xlsCell types one BIFF cell the same way xlsxCell does: numbers become
// Number cells unless their format is a date, which is rendered as text.
func xlsCell(col structure.CellData, dates dateStyle) extract.Cell {
	if col == nil {
		return extract.Blank()
	}

	switch col.GetType() {
	case xlsNumber, xlsRk:
		n := col.GetFloat64()
		if dates(col.GetXFIndex()) {
			if t, err := excelize.ExcelDateToTime(n, false); err == nil {
				return extract.Str(t.Format(dateTimeLayout))
			}
		}
		return extract.Num(n)
	}

	if v := col.GetString(); v != "" {
		return extract.Str(v)
	}
	return extract.Blank()
}
