package model

import (
	"time"

	"github.com/google/uuid"
)

// HOSSummary is a computed snapshot of a driver's hour budgets at
// evaluation time. It is never persisted.
type HOSSummary struct {
	DriverID           uuid.UUID  `json:"driver_id"`
	DriverName         string     `json:"driver_name"`
	CurrentStatus      DutyStatus `json:"current_status"`
	CurrentStatusSince time.Time  `json:"current_status_since"`

	HoursDrivenToday    float64 `json:"hours_driven_today"`
	AvailableDriveHours float64 `json:"available_drive_hours"`

	OnDutyHoursToday     float64 `json:"on_duty_hours_today"`
	AvailableOnDutyHours float64 `json:"available_on_duty_hours"`

	CycleHours          float64 `json:"cycle_hours"`
	AvailableCycleHours float64 `json:"available_cycle_hours"`

	HoursUntilBreakRequired float64    `json:"hours_until_break_required"`
	LastRestPeriod          *time.Time `json:"last_rest_period,omitempty"`

	IsInViolation bool     `json:"is_in_violation"`
	Violations    []string `json:"violations"`
}
