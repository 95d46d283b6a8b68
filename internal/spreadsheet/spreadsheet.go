// Package spreadsheet inspects downloaded xlsx workbooks.
//
// The downloaded bytes are never modified; Summarize only reads them to
// report what was saved.
package spreadsheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet describes one worksheet.
type Sheet struct {
	Name    string
	Rows    int
	Columns int
}

// Summary describes a workbook.
type Summary struct {
	Sheets []Sheet
}

// Summarize opens an xlsx payload and counts rows and columns per sheet.
func Summarize(data []byte) (*Summary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	summary := &Summary{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}

		sheet := Sheet{Name: name, Rows: len(rows)}
		for _, row := range rows {
			sheet.Columns = max(sheet.Columns, len(row))
		}
		summary.Sheets = append(summary.Sheets, sheet)
	}

	return summary, nil
}

// String renders the summary on one line, e.g. `2 sheets: Data (10x4), Meta (2x2)`.
func (s *Summary) String() string {
	parts := make([]string, len(s.Sheets))
	for i, sh := range s.Sheets {
		parts[i] = fmt.Sprintf("%s (%dx%d)", sh.Name, sh.Rows, sh.Columns)
	}

	noun := "sheets"
	if len(s.Sheets) == 1 {
		noun = "sheet"
	}
	return fmt.Sprintf("%d %s: %s", len(s.Sheets), noun, strings.Join(parts, ", "))
}
