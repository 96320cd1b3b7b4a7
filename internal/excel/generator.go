package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"hos-service/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a driver log sheet: a summary sheet plus one sheet
// per day with the individual duty-status entries.
func (g *Generator) Generate(sheet model.LogSheet) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	g.writeSummary(file, summarySheet, sheet)

	for _, day := range sheet.Days {
		name := day.Date.Format("2006-01-02")
		if _, err := file.NewSheet(name); err != nil {
			return nil, err
		}
		g.writeDay(file, name, day)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.LogSheet) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Driver")
	set("B1", report.DriverName)
	set("A2", "Driver ID")
	set("B2", report.DriverID.String())
	set("A3", "Period start")
	set("B3", formatDate(report.PeriodStart))
	set("A4", "Period end")
	set("B4", formatDate(report.PeriodEnd))

	row := 6
	headers := []string{"Date", "Driving (h)", "On duty (h)", "Rest (h)", "Entries", "Certified"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		set(cell, h)
	}
	for _, day := range report.Days {
		row++
		values := []interface{}{
			day.Date.Format("2006-01-02"),
			hours(day.DrivingMinutes),
			hours(day.OnDutyMinutes),
			hours(day.RestMinutes),
			len(day.Logs),
			yesNo(day.Certified),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			set(cell, v)
		}
	}

	if len(report.Violations) > 0 {
		row += 2
		set(fmt.Sprintf("A%d", row), "Violations")
		row++
		headers := []string{"Date", "Type", "Severity", "Actual", "Limit", "Resolved"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			set(cell, h)
		}
		for _, v := range report.Violations {
			row++
			values := []interface{}{
				v.ViolationDateTime.Format("2006-01-02 15:04"),
				string(v.Type),
				string(v.Severity),
				v.ActualValue,
				v.LimitValue,
				yesNo(v.IsResolved),
			}
			for i, val := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				set(cell, val)
			}
		}
	}
}

func (g *Generator) writeDay(file *excelize.File, sheet string, day model.LogSheetDay) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Status", "Start", "End", "Duration (min)", "Location", "Vehicle", "Odometer", "Edited", "Certified"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, h)
	}

	for rowIdx, entry := range day.Logs {
		end := ""
		duration := ""
		if entry.EndTime != nil {
			end = entry.EndTime.Format("15:04")
			duration = fmt.Sprintf("%.0f", entry.DurationMinutes())
		}
		vehicle := ""
		if entry.VehicleID != nil {
			vehicle = entry.VehicleID.String()
		}
		odometer := ""
		if entry.Odometer != nil {
			odometer = fmt.Sprintf("%.1f", *entry.Odometer)
		}
		values := []interface{}{
			string(entry.Status),
			entry.StartTime.Format("15:04"),
			end,
			duration,
			entry.Location,
			vehicle,
			odometer,
			yesNo(entry.IsEdited),
			yesNo(entry.IsCertified),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			set(cell, v)
		}
	}
}

func hours(minutes float64) string {
	return fmt.Sprintf("%.2f", minutes/60)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
