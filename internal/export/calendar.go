// Package export renders planned visits as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	calendarSheet = "Calendar"
	dateLayout    = "2006-01-02"
)

var calendarHeader = []string{"Date", "Weekday", "Start", "End", "Doctor", "Specialization", "Products"}

var columnWidths = []float64{12, 12, 8, 8, 28, 20, 40}

// WriteCalendar writes one row per calendar entry to a single-sheet workbook.
func WriteCalendar(w io.Writer, entries []domain.CalendarEntry) error {
	const op = "internal.export.WriteCalendar"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", calendarSheet); err != nil {
		return fmt.Errorf("%s: failed to name sheet: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create header style: %w", op, err)
	}

	if err := f.SetSheetRow(calendarSheet, "A1", &calendarHeader); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(calendarHeader))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.SetCellStyle(calendarSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("%s: failed to style header: %w", op, err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(calendarSheet, col, col, width); err != nil {
			return fmt.Errorf("%s: failed to set column width: %w", op, err)
		}
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		row := calendarRow(e)
		if err := f.SetSheetRow(calendarSheet, cell, &row); err != nil {
			return fmt.Errorf("%s: failed to write row %d: %w", op, i+2, err)
		}
	}

	if err := f.SetPanes(calendarSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%s: failed to freeze header: %w", op, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}

	return nil
}

func calendarRow(e domain.CalendarEntry) []any {
	a := e.Assignment

	specialization := ""
	if a.Doctor.SpecializationName != nil {
		specialization = *a.Doctor.SpecializationName
	}

	products := make([]string, 0, len(a.Products))
	for _, p := range a.Products {
		products = append(products, p.Name)
	}

	return []any{
		e.Date.Format(dateLayout),
		string(domain.WeekdayOf(e.Date)),
		a.StartTime.String(),
		a.EndTime.String(),
		a.Doctor.Name,
		specialization,
		strings.Join(products, ", "),
	}
}
