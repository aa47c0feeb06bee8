package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// XLSX — Spreadsheet upload and export
// ============================================================================

const (
	dataSheet    = "Data"
	summarySheet = "Summary"
)

// ErrNoSheets indicates a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no worksheets")

// ParseXLSX reads the first worksheet of an .xlsx upload. The first row is the
// header; failures are reported as *ParseError like ParseCSV.
func ParseXLSX(name string, data []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{File: name, Err: ErrNoSheets}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &ParseError{File: name, Err: ErrEmpty}
	}

	header := rows[0]
	body := rows[1:]
	for i, row := range body {
		if len(row) > len(header) {
			return nil, &ParseError{
				File: name,
				Line: i + 2,
				Err:  fmt.Errorf("%w: expected %d, saw %d", ErrRowWidth, len(header), len(row)),
			}
		}
	}
	return New(name, NormalizeHeader(header), body), nil
}

// WriteXLSX writes ds to a "Data" sheet and, when summary is non-nil, the
// statistics to a "Summary" sheet.
func WriteXLSX(w io.Writer, ds *Dataset, summary *Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, dataSheet, 1, textCells(ds.ColumnNames())); err != nil {
		return err
	}
	for i := 0; i < ds.Len(); i++ {
		cells := make([]interface{}, ds.NumColumns())
		for ci, c := range ds.Columns() {
			cells[ci] = cellValue(c, i)
		}
		if err := writeRow(f, dataSheet, i+2, cells); err != nil {
			return err
		}
	}

	if summary != nil {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("create summary sheet: %w", err)
		}
		header := append([]string{""}, summary.ColumnNames()...)
		if err := writeRow(f, summarySheet, 1, textCells(header)); err != nil {
			return err
		}
		for r, row := range summary.Rows() {
			if err := writeRow(f, summarySheet, r+2, statCells(row)); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue keeps numbers numeric in the workbook and everything else as text.
func cellValue(c *Column, i int) interface{} {
	if c.IsMissing(i) {
		return nil
	}
	if c.Kind == KindNumeric {
		if f, ok := c.Float(i); ok {
			return f
		}
	}
	return c.Raw(i)
}

func textCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// statCells writes finite statistics as numbers; labels and "NaN" stay text.
func statCells(values []string) []interface{} {
	cells := textCells(values)
	for i, v := range values {
		if i == 0 {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			cells[i] = f
		}
	}
	return cells
}
