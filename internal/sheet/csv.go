package sheet

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/JonMunkholm/navsync/internal/extract"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// loadCSV reads a single-sheet CSV export. Exports from domestic systems are
// often GB18030 rather than UTF-8.
func loadCSV(fileName string, data []byte) ([]Sheet, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return []Sheet{{Name: name, Grid: extract.StringGrid(records)}}, nil
}

func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	return simplifiedchinese.GB18030.NewDecoder().Bytes(data)
}
