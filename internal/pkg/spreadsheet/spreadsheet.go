// Package spreadsheet reads and writes the tabular files used for roster and
// setlist import/export. Rows are exchanged as header-keyed maps so callers can
// tolerate header label variants.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const utf8BOM = "\xEF\xBB\xBF"

var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ParseFormat accepts a bare format name or a file name.
func ParseFormat(s string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(s), "."))
	if ext == "" {
		ext = strings.ToLower(strings.TrimSpace(s))
	}

	switch ext {
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}

	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ReadRows returns every data row of the first sheet keyed by the header row.
// Header cells are trimmed; blank header cells are skipped. Fully blank rows
// are dropped.
func ReadRows(r io.Reader, format Format) ([]map[string]string, error) {
	var table [][]string
	var err error

	switch format {
	case FormatXLSX:
		table, err = readXLSX(r)
	case FormatCSV:
		table, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return toMaps(table), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excelize.OpenReader -> %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("f.GetRows -> %w", err)
	}

	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reader.ReadAll -> %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}

	return rows, nil
}

func toMaps(table [][]string) []map[string]string {
	if len(table) == 0 {
		return []map[string]string{}
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]map[string]string, 0, len(table)-1)
	for _, row := range table[1:] {
		m := make(map[string]string, len(header))
		blank := true
		for i, h := range header {
			if h == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			m[h] = v
		}
		if !blank {
			out = append(out, m)
		}
	}

	return out
}

// WriteRows writes header followed by rows.
func WriteRows(w io.Writer, format Format, header []string, rows [][]string) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, header, rows)
	case FormatCSV:
		return writeCSV(w, header, rows)
	}

	return ErrUnsupportedFormat
}

func writeXLSX(w io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range append([][]string{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("f.SetSheetRow -> %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("f.Write -> %w", err)
	}

	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	// Excel needs the BOM to detect UTF-8.
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("writer.WriteAll -> %w", err)
	}

	return nil
}
