// Package sheet decodes spreadsheet files into extraction grids.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/navsync/internal/extract"
)

var (
	// ErrUnsupportedFormat is returned for files that are not xlsx, xls or csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrEmptyWorkbook is returned when a workbook has no sheets.
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
)

// Format identifies a spreadsheet container.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatXLS
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Sheet is one worksheet of a decoded file.
type Sheet struct {
	Name string
	Grid extract.Grid
}

// DetectFormat picks the container from the file extension. Mail clients
// sometimes mislabel attachments, so the content signature overrides an
// extension that disagrees with it.
func DetectFormat(fileName string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv":
		return FormatCSV
	}
	return FormatUnknown
}

// IsSpreadsheet reports whether fileName has a spreadsheet extension.
func IsSpreadsheet(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xls", ".csv":
		return true
	}
	return false
}

// Load decodes every worksheet in data, in workbook order.
func Load(fileName string, data []byte) ([]Sheet, error) {
	var (
		sheets []Sheet
		err    error
	)

	switch format := DetectFormat(fileName, data); format {
	case FormatXLSX:
		sheets, err = loadXLSX(data)
	case FormatXLS:
		sheets, err = loadXLS(data)
	case FormatCSV:
		sheets, err = loadCSV(fileName, data)
	default:
		return nil, fmt.Errorf("%s: %w", fileName, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fileName, err)
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", fileName, ErrEmptyWorkbook)
	}
	return sheets, nil
}
