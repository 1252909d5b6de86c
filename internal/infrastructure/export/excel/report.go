// Package excel renders monthly attendance reports as XLSX workbooks.
package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/geopresensi/attendance-hub/internal/application/query"
)

// Status cell fills. Late and absent cells are tinted so a scanning eye
// catches them in a 31-column matrix.
const (
	fillLate    = "FFF2CC"
	fillAbsent  = "F8CBAD"
	fillExcused = "DDEBF7"
)

const sheetName = "Rekap Absensi"

// fixed columns before the day matrix: No, Nama, NUPTK
const dayColOffset = 3

// ReportWriter renders query.MonthlyReport into an XLSX workbook.
type ReportWriter struct{}

// NewReportWriter creates a ReportWriter.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// Write renders the report and returns the workbook bytes.
func (w *ReportWriter) Write(report *query.MonthlyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("excel report: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("excel report: %w", err)
	}

	if err := w.writeHeader(f, report); err != nil {
		return nil, err
	}
	if err := w.writeRows(f, report); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("excel report: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the download filename for a month.
func (w *ReportWriter) Filename(month string) string {
	return fmt.Sprintf("rekap-absensi-%s.xlsx", month)
}

func (w *ReportWriter) writeHeader(f *excelize.File, report *query.MonthlyReport) error {
	title := fmt.Sprintf("Rekap Absensi %s", report.Month)
	if report.SchoolName != "" {
		title = fmt.Sprintf("%s - %s", report.SchoolName, title)
	}
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(dayColOffset + report.DaysInMonth + 5)
	if err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", titleStyle); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}

	// Column header row
	headers := []string{"No", "Nama", "NUPTK"}
	for day := 1; day <= report.DaysInMonth; day++ {
		headers = append(headers, fmt.Sprintf("%d", day))
	}
	headers = append(headers, "H", "T", "I", "A", "Poin")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
	})
	if err != nil {
		return fmt.Errorf("excel report: %w", err)
	}

	for i, header := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("excel report: %w", err)
		}
		cell := col + "2"
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("excel report: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("excel report: %w", err)
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 28); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	if err := f.SetColWidth(sheetName, "C", "C", 18); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	dayStart, _ := excelize.ColumnNumberToName(dayColOffset + 1)
	dayEnd, _ := excelize.ColumnNumberToName(dayColOffset + report.DaysInMonth)
	if err := f.SetColWidth(sheetName, dayStart, dayEnd, 3.5); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	return nil
}

func (w *ReportWriter) writeRows(f *excelize.File, report *query.MonthlyReport) error {
	styles, err := newStatusStyles(f)
	if err != nil {
		return err
	}

	for i, row := range report.Rows {
		rowNum := i + 3

		cells := []interface{}{i + 1, row.FullName, row.NUPTK}
		for day := 1; day <= report.DaysInMonth; day++ {
			cells = append(cells, row.StatusByDay[day])
		}
		cells = append(cells,
			row.PresentCount,
			row.LateCount,
			row.ExcusedCount,
			row.AbsentCount,
			int(row.TotalPoints),
		)

		for col, value := range cells {
			colName, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("excel report: %w", err)
			}
			cell := fmt.Sprintf("%s%d", colName, rowNum)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("excel report: %w", err)
			}

			if col >= dayColOffset && col < dayColOffset+report.DaysInMonth {
				code, _ := value.(string)
				if style, ok := styles[code]; ok {
					if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
						return fmt.Errorf("excel report: %w", err)
					}
				}
			}
		}
	}
	return nil
}

// newStatusStyles builds the fill styles keyed by status code.
func newStatusStyles(f *excelize.File) (map[string]int, error) {
	centered := &excelize.Alignment{Horizontal: "center"}
	fills := map[string]string{
		query.CodeLate:    fillLate,
		query.CodeAbsent:  fillAbsent,
		query.CodeExcused: fillExcused,
	}

	styles := make(map[string]int, len(fills)+1)
	plain, err := f.NewStyle(&excelize.Style{Alignment: centered})
	if err != nil {
		return nil, fmt.Errorf("excel report: %w", err)
	}
	styles[query.CodePresent] = plain

	for code, color := range fills {
		style, err := f.NewStyle(&excelize.Style{
			Alignment: centered,
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, fmt.Errorf("excel report: %w", err)
		}
		styles[code] = style
	}
	return styles, nil
}
