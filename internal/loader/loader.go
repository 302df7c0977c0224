package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Grid is the raw positional grid read from an export: rows of string
// cells with no semantic meaning attached. Rows may be ragged; use Cell
// for bounds-safe access.
type Grid struct {
	Rows [][]string
	// DecimalComma marks semicolon-delimited sources. That variant of
	// the export exists because the locale writes "1.234,56": comma is
	// the decimal point and dot groups thousands.
	DecimalComma bool
}

// Cell returns the trimmed cell at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// LoadError means the source bytes could not be read under any supported
// format or encoding. It is the only fatal outcome of a load.
type LoadError struct {
	Attempts []string
}

func (e *LoadError) Error() string {
	return "source is not a readable table: " + strings.Join(e.Attempts, "; ")
}

// Load reads an export into a Grid. It tries xlsx first, then delimited
// text as UTF-8, Windows-1252 and ISO 8859-1, in that order. No row is
// skipped or treated as a header; classification happens downstream.
func Load(data []byte) (Grid, error) {
	var attempts []string

	grid, err := loadXLSX(data)
	if err == nil {
		return grid, nil
	}
	attempts = append(attempts, fmt.Sprintf("xlsx: %v", err))

	grid, err = loadCSV(data, nil, "utf-8")
	if err == nil {
		return grid, nil
	}
	attempts = append(attempts, fmt.Sprintf("csv utf-8: %v", err))

	for _, enc := range []struct {
		name string
		cm   *charmap.Charmap
	}{
		{"windows-1252", charmap.Windows1252},
		{"iso-8859-1", charmap.ISO8859_1},
	} {
		grid, err = loadCSV(data, enc.cm.NewDecoder(), enc.name)
		if err == nil {
			return grid, nil
		}
		attempts = append(attempts, fmt.Sprintf("csv %s: %v", enc.name, err))
	}

	return Grid{}, &LoadError{Attempts: attempts}
}

func loadXLSX(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Grid{}, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Grid{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Grid{}, err
	}
	return Grid{Rows: rows}, nil
}

func loadCSV(data []byte, dec *encoding.Decoder, encName string) (Grid, error) {
	if dec == nil {
		if !utf8.Valid(data) {
			return Grid{}, fmt.Errorf("not valid utf-8")
		}
	} else {
		decoded, err := dec.Bytes(data)
		if err != nil {
			return Grid{}, fmt.Errorf("decoding %s: %w", encName, err)
		}
		data = decoded
	}

	delim := sniffDelimiter(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Grid{}, err
	}
	if len(rows) == 0 {
		return Grid{}, fmt.Errorf("empty table")
	}
	return Grid{Rows: rows, DecimalComma: delim == ';'}, nil
}

// sniffDelimiter picks comma unless the first line is clearly
// semicolon-delimited, a common variant of the same export.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
