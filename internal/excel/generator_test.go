package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"hos-service/internal/model"
)

func TestGenerateLogSheet(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	start := day.Add(8 * time.Hour)
	end := start.Add(4 * time.Hour)

	sheet := model.LogSheet{
		DriverID:    uuid.New(),
		DriverName:  "Avery Miles",
		PeriodStart: day,
		PeriodEnd:   day.AddDate(0, 0, 1),
		Days: []model.LogSheetDay{
			{
				Date: day,
				Logs: []model.DutyStatusLog{
					{
						Status:    model.DutyStatusDriving,
						StartTime: start,
						EndTime:   &end,
						Location:  "I-80 rest area",
					},
				},
				DrivingMinutes: 240,
				OnDutyMinutes:  240,
			},
		},
		Violations: []model.HOSViolation{
			{
				Type:              model.ViolationTypeBreakAfter8Hours,
				Severity:          model.ViolationSeverityModerate,
				ActualValue:       8.5,
				LimitValue:        8,
				ViolationDateTime: end,
			},
		},
	}

	payload, err := NewGenerator().Generate(sheet)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("open generated workbook: %v", err)
	}
	defer file.Close()

	name, err := file.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Avery Miles" {
		t.Errorf("B1 = %q, want driver name", name)
	}

	status, err := file.GetCellValue("2025-03-10", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if status != string(model.DutyStatusDriving) {
		t.Errorf("day sheet A2 = %q, want DRIVING", status)
	}
}
