package report

import (
	"fmt"
	"io"
	"time"

	"roombook/pkg/model"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columns = []string{"Room ID", "Room Name", "Type", "Price", "Total Bookings"}

// FileName returns the attachment name for a month, e.g. monthly-report-2024-03.xlsx.
func FileName(year int, month time.Month) string {
	return fmt.Sprintf("monthly-report-%04d-%02d.xlsx", year, int(month))
}

// WriteMonthlyXLSX renders one row per room. Rooms deleted since booking keep their
// id with empty details.
func WriteMonthlyXLSX(w io.Writer, year int, month time.Month, entries []*model.MonthlyReportEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%04d-%02d", year, int(month))
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	_ = f.SetCellStyle(sheet, "A1", "E1", style)
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "E", 18)

	total := 0
	for i, entry := range entries {
		row := []any{entry.RoomID, "", "", "", entry.TotalBookings}
		if len(entry.RoomDetails) > 0 {
			room := entry.RoomDetails[0]
			row[1], row[2], row[3] = room.Name, string(room.Type), room.Price
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		total += entry.TotalBookings
	}

	totalRow := []any{"Total", "", "", "", total}
	cell, _ := excelize.CoordinatesToCellName(1, len(entries)+2)
	if err := f.SetSheetRow(sheet, cell, &totalRow); err != nil {
		return fmt.Errorf("failed to write total row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
