package model

import (
	"time"

	"github.com/google/uuid"
)

// LogSheet is the export view of a driver's duty-status history over a
// period, grouped by calendar day.
type LogSheet struct {
	DriverID    uuid.UUID
	DriverName  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Days        []LogSheetDay
	Violations  []HOSViolation
}

type LogSheetDay struct {
	Date           time.Time
	Logs           []DutyStatusLog
	DrivingMinutes float64
	OnDutyMinutes  float64
	RestMinutes    float64
	Certified      bool
}
