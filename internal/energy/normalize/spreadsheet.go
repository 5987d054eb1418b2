package normalize

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnreadableFile is returned when the upload is not a readable workbook or CSV.
	ErrUnreadableFile = errors.New("normalize: unreadable file")
	// ErrUnsupportedFormat is returned for extensions other than xlsx/xls/csv.
	ErrUnsupportedFormat = errors.New("normalize: unsupported file format")
)

// ReadFile decodes an uploaded file into rows, dispatching on its extension.
func ReadFile(name string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return ReadSpreadsheet(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadSpreadsheet reads the first sheet of a workbook. The first non-empty
// row is the header. Numeric cells are returned as float64 so that date
// serials reach the serial branch of Date.
func ReadSpreadsheet(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	var headers []string
	rows := make([]Row, 0, len(raw))
	for i, cells := range raw {
		if blank(cells) {
			continue
		}
		if headers == nil {
			headers = trimAll(cells)
			continue
		}
		values := make([]any, len(cells))
		for col, text := range cells {
			if text == "" {
				continue
			}
			values[col] = cellValue(f, sheet, col+1, i+1, text)
		}
		if row := NewRow(headers, values); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func cellValue(f *excelize.File, sheet string, col, row int, text string) any {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return text
	}
	kind, err := f.GetCellType(sheet, axis)
	if err != nil {
		return text
	}
	switch kind {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return text
	case excelize.CellTypeBool:
		return text == "1" || strings.EqualFold(text, "true")
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		return v
	}
	return text
}

// ReadCSV reads a delimited text file. The delimiter is ',' unless the header
// line has more ';' than ','. All values stay strings.
func ReadCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(4096)
	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(peek)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	var headers []string
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if blank(record) {
			continue
		}
		if headers == nil {
			headers = trimAll(record)
			if len(headers) > 0 {
				headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
			}
			continue
		}
		values := make([]any, len(record))
		for i, text := range record {
			if text != "" {
				values[i] = text
			}
		}
		if row := NewRow(headers, values); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func sniffDelimiter(peek []byte) rune {
	line := peek
	if idx := bytes.IndexByte(peek, '\n'); idx >= 0 {
		line = peek[:idx]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func blank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
