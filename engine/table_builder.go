package engine

import (
	"fmt"

	"github.com/spektr-org/csvplot/dataset"
)

// ============================================================================
// TABLE BUILDER — Produces TableData for the data and statistics views
// ============================================================================

const (
	dataTableTitle    = "Uploaded Data"
	summaryTableTitle = "Summary Statistics"
)

// DataTable renders ds as a table of raw cell text. limit > 0 keeps only the
// first limit rows; the footer records the truncation.
func DataTable(ds *dataset.Dataset, limit int) *TableData {
	columns := make([]Column, 0, ds.NumColumns())
	for _, c := range ds.Columns() {
		columns = append(columns, columnFor(c.Name, c.Kind))
	}

	n := ds.Len()
	truncated := false
	if limit > 0 && n > limit {
		n = limit
		truncated = true
	}

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, ds.Row(i))
	}

	label := fmt.Sprintf("%d rows × %d columns", ds.Len(), ds.NumColumns())
	if truncated {
		label = fmt.Sprintf("%s (showing first %d)", label, n)
	}

	return &TableData{
		Title:   dataTableTitle,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{Label: label, Truncated: truncated},
	}
}

// SummaryTable renders descriptive statistics: one row per statistic, one
// column per summarised dataset column.
func SummaryTable(s *dataset.Summary) *TableData {
	columns := make([]Column, 0, len(s.Columns)+1)
	columns = append(columns, Column{Key: "stat", Label: "", Type: "text", Align: "left"})
	for _, c := range s.Columns {
		col := Column{Key: c.Name, Label: c.Name, Type: "text", Align: "left"}
		if c.Numeric != nil {
			col.Type, col.Align = "number", "right"
		}
		columns = append(columns, col)
	}

	return &TableData{
		Title:   summaryTableTitle,
		Columns: columns,
		Rows:    s.Rows(),
	}
}

func columnFor(name string, kind dataset.Kind) Column {
	switch kind {
	case dataset.KindNumeric:
		return Column{Key: name, Label: name, Type: "number", Align: "right"}
	case dataset.KindTemporal:
		return Column{Key: name, Label: name, Type: "date", Align: "left"}
	case dataset.KindBool:
		return Column{Key: name, Label: name, Type: "bool", Align: "left"}
	default:
		return Column{Key: name, Label: name, Type: "text", Align: "left"}
	}
}
