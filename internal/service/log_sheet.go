package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/model"
)

// BuildLogSheet assembles the export view of the driver's logs between
// from and to, grouped by the calendar day each log starts on.
func (s *LogService) BuildLogSheet(ctx context.Context, driverID uuid.UUID, driverName string, from, to time.Time) (*model.LogSheet, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: period end must follow period start", ErrInvalidInput)
	}

	logs, err := s.logStore.GetLogsInRange(ctx, driverID, &from, &to)
	if err != nil {
		return nil, err
	}

	sheet := &model.LogSheet{
		DriverID:    driverID,
		DriverName:  driverName,
		PeriodStart: from,
		PeriodEnd:   to,
	}

	var day *model.LogSheetDay
	for _, entry := range logs {
		start := entry.StartTime
		date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

		if day == nil || !day.Date.Equal(date) {
			sheet.Days = append(sheet.Days, model.LogSheetDay{Date: date, Certified: true})
			day = &sheet.Days[len(sheet.Days)-1]
		}

		day.Logs = append(day.Logs, entry)
		if !entry.IsCertified {
			day.Certified = false
		}
		if entry.IsOpen() {
			continue
		}
		switch {
		case entry.Status == model.DutyStatusDriving:
			day.DrivingMinutes += entry.DurationMinutes()
			day.OnDutyMinutes += entry.DurationMinutes()
		case entry.Status.IsOnDuty():
			day.OnDutyMinutes += entry.DurationMinutes()
		case entry.Status.IsRest():
			day.RestMinutes += entry.DurationMinutes()
		}
	}

	return sheet, nil
}
