package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/warp/opsreport/report"
	"github.com/xuri/excelize/v2"
)

// SummarySheet is the first sheet of an XLSX export.
const SummarySheet = "Summary"

// XLSXName is the download name of a report's workbook.
func XLSXName(date string) string {
	return fmt.Sprintf("IT_Report_%s.xlsx", date)
}

// WriteXLSX writes rec as a workbook: a Summary sheet followed by one
// sheet per category, each with a bold header row.
func WriteXLSX(w io.Writer, rec report.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]any{
		{"Date", rec.Date},
		{"Day", report.FormatDate(rec.Date)},
		{"Prepared by", rec.PreparedBy},
		{"Has issues", report.HasIssues(rec)},
		{"Summary", rec.SummaryNotes},
		{"Next actions", rec.NextActions},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), header); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 60); err != nil {
		return err
	}

	for _, schema := range report.Schemas() {
		sheet := string(schema.Category)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		headers := toRow(schema.Headers)
		if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(schema.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return err
		}
		for i, cells := range rec.Table(schema.Category) {
			row := toRow(cells)
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

// XLSX renders rec into a byte slice.
func XLSX(rec report.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
