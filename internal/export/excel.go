// Package export renders week reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"lokalebooking/internal/calendar"
	"lokalebooking/internal/slots"
)

// WriteWeek writes one sheet for the Monday–Friday week of a room: day
// labels across, slot labels down, booked cells carry the booker's name.
func WriteWeek(w io.Writer, room string, monday time.Time, ix slots.Index) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(calendar.WeekRangeLabel(monday))
	f.SetSheetName("Sheet1", sheet)

	days := calendar.WeekDays(monday)
	header := make([]interface{}, 0, len(days)+1)
	header = append(header, room)
	for _, d := range days {
		header = append(header, calendar.DayLabel(d))
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i, slot := range slots.OfDay() {
		row := make([]interface{}, 0, len(days)+1)
		row = append(row, slot.Label)
		for _, d := range days {
			name := ""
			if b, ok := ix.Lookup(room, calendar.ISODate(d), slot.StartMinutes); ok {
				name = b.Name
			}
			row = append(row, name)
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func sheetName(name string) string {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
