// Package export renders booking lists as spreadsheets for the shop owner.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []string{"Date", "Start", "End", "Staff", "Customer", "Phone", "Email", "Status", "Booking ID"}

// WriteBookings writes bookings as one row each, in shop-local time, after a
// title row naming the period and a header row.
func WriteBookings(w io.Writer, bookings []model.Booking, from, to model.Date, loc *time.Location) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Bookings %s - %s", from, to))
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headStyle)
	}

	cancelledStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, b := range bookings {
		row := i + 3
		start, end := b.Start.In(loc), b.End.In(loc)
		values := []any{
			start.Format("2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			staffLabel(b),
			b.CustomerName,
			b.PhoneE164,
			b.Email,
			string(b.Status),
			b.ID,
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, first, &values); err != nil {
			return err
		}
		if b.Status == model.StatusCancelled {
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(SheetName, first, last, cancelledStyle)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "C", 12)
	_ = f.SetColWidth(SheetName, "D", "G", 24)
	_ = f.SetColWidth(SheetName, "I", "I", 38)

	_, err = f.WriteTo(w)
	return err
}

func staffLabel(b model.Booking) string {
	if b.StaffName != "" {
		return b.StaffName
	}
	return b.StaffID
}
