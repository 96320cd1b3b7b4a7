package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"hos-service/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the driver log sheet as a printable PDF, one
// section per day.
func (g *Generator) Generate(sheet model.LogSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Driver's Record of Duty Status", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Driver: %s (%s)", sheet.DriverName, sheet.DriverID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s - %s", sheet.PeriodStart.Format("2006-01-02"), sheet.PeriodEnd.Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, day := range sheet.Days {
		g.writeDay(pdf, day)
	}

	if len(sheet.Violations) > 0 {
		g.writeViolations(pdf, sheet.Violations)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeDay(pdf *gofpdf.Fpdf, day model.LogSheetDay) {
	pdf.SetFont(g.fontName, "B", 12)
	title := day.Date.Format("Monday, 2006-01-02")
	if day.Certified {
		title += "  (certified)"
	}
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Driving %.2f h, on duty %.2f h, rest %.2f h",
		day.DrivingMinutes/60, day.OnDutyMinutes/60, day.RestMinutes/60), "", 1, "L", false, 0, "")
	pdf.Ln(1)

	headers := []string{"Status", "Start", "End", "Minutes", "Location"}
	widths := []float64{50, 22, 22, 22, 64}
	drawRow(pdf, g.fontName, headers, widths, true)

	for _, entry := range day.Logs {
		end := "open"
		minutes := "-"
		if entry.EndTime != nil {
			end = entry.EndTime.Format("15:04")
			minutes = fmt.Sprintf("%.0f", entry.DurationMinutes())
		}
		drawRow(pdf, g.fontName, []string{
			string(entry.Status),
			entry.StartTime.Format("15:04"),
			end,
			minutes,
			entry.Location,
		}, widths, false)
	}
	pdf.Ln(4)
}

func (g *Generator) writeViolations(pdf *gofpdf.Fpdf, violations []model.HOSViolation) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Violations", "", 1, "L", false, 0, "")

	headers := []string{"Date", "Severity", "Description"}
	widths := []float64{30, 26, 124}
	drawRow(pdf, g.fontName, headers, widths, true)
	for _, v := range violations {
		drawRow(pdf, g.fontName, []string{
			v.ViolationDateTime.Format("2006-01-02"),
			string(v.Severity),
			v.Description,
		}, widths, false)
	}
}

func drawRow(pdf *gofpdf.Fpdf, font string, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(font, style, 9)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}
