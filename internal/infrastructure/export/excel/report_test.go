package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/geopresensi/attendance-hub/internal/application/query"
)

func sampleReport() *query.MonthlyReport {
	return &query.MonthlyReport{
		SchoolName:  "SMP Harapan Bangsa",
		Month:       "2026-03",
		DaysInMonth: 31,
		Rows: []query.ReportRow{
			{
				UserID:   "u-1",
				FullName: "Budi Santoso",
				NUPTK:    "1234567890123456",
				StatusByDay: map[int]string{
					2: query.CodePresent,
					3: query.CodeLate,
					4: query.CodeExcused,
				},
				PresentCount: 1,
				LateCount:    1,
				ExcusedCount: 1,
				TotalPoints:  20,
			},
			{
				UserID:      "u-2",
				FullName:    "Ani Wijaya",
				StatusByDay: map[int]string{2: query.CodeAbsent},
				AbsentCount: 1,
			},
		},
	}
}

func TestReportWriter_WriteProducesReadableWorkbook(t *testing.T) {
	w := NewReportWriter()

	data, err := w.Write(sampleReport())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, sheetName, f.GetSheetName(0))

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "SMP Harapan Bangsa - Rekap Absensi 2026-03", title)

	// Header row: No, Nama, NUPTK, then days 1..31, then totals.
	name, err := f.GetCellValue(sheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Nama", name)

	day1, err := f.GetCellValue(sheetName, "D2")
	require.NoError(t, err)
	assert.Equal(t, "1", day1)

	// Day 3 of the first staff row is a late cell.
	lateCell, err := f.GetCellValue(sheetName, "F3")
	require.NoError(t, err)
	assert.Equal(t, query.CodeLate, lateCell)

	// Totals sit right after the day matrix.
	pointsCol, err := excelize.ColumnNumberToName(dayColOffset + 31 + 5)
	require.NoError(t, err)
	points, err := f.GetCellValue(sheetName, pointsCol+"3")
	require.NoError(t, err)
	assert.Equal(t, "20", points)
}

func TestReportWriter_Filename(t *testing.T) {
	w := NewReportWriter()
	assert.Equal(t, "rekap-absensi-2026-03.xlsx", w.Filename("2026-03"))
}

func TestReportWriter_EmptyReport(t *testing.T) {
	w := NewReportWriter()

	data, err := w.Write(&query.MonthlyReport{Month: "2026-01", DaysInMonth: 31})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	// Title row and header row only.
	assert.Len(t, rows, 2)
}
