package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DutyStatus string

const (
	DutyStatusOffDuty          DutyStatus = "OFF_DUTY"
	DutyStatusSleeperBerth     DutyStatus = "SLEEPER_BERTH"
	DutyStatusDriving          DutyStatus = "DRIVING"
	DutyStatusOnDutyNotDriving DutyStatus = "ON_DUTY_NOT_DRIVING"
)

func (s DutyStatus) IsValid() bool {
	switch s {
	case DutyStatusOffDuty, DutyStatusSleeperBerth, DutyStatusDriving, DutyStatusOnDutyNotDriving:
		return true
	}
	return false
}

// IsRest reports whether time in this status counts toward rest
// (off duty or sleeper berth).
func (s DutyStatus) IsRest() bool {
	return s == DutyStatusOffDuty || s == DutyStatusSleeperBerth
}

// IsOnDuty reports whether time in this status counts against the
// on-duty hour budgets.
func (s DutyStatus) IsOnDuty() bool {
	return s == DutyStatusDriving || s == DutyStatusOnDutyNotDriving
}

type LogSource string

const (
	LogSourceManual    LogSource = "MANUAL"
	LogSourceAutomatic LogSource = "AUTOMATIC"
)

// DutyStatusLog is one continuous period a driver spends in a single
// duty status. EndTime is nil while the log is open; at most one log
// per driver may be open at a time (enforced by a partial unique index).
type DutyStatusLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID    uuid.UUID  `gorm:"type:uuid;not null" json:"driver_id"`
	Status      DutyStatus `gorm:"type:duty_status;not null" json:"status"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    string     `gorm:"type:text" json:"location"`
	Latitude    *float64   `gorm:"type:numeric(9,6)" json:"latitude,omitempty"`
	Longitude   *float64   `gorm:"type:numeric(9,6)" json:"longitude,omitempty"`
	VehicleID   *uuid.UUID `gorm:"type:uuid" json:"vehicle_id,omitempty"`
	Odometer    *float64   `gorm:"type:numeric(10,1)" json:"odometer,omitempty"`
	Source      LogSource  `gorm:"type:log_source;not null;default:'MANUAL'" json:"source"`
	Notes       string     `gorm:"type:text" json:"notes"`
	IsEdited    bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
	EditReason  string     `gorm:"type:text" json:"edit_reason,omitempty"`
	IsCertified bool       `gorm:"not null;default:false" json:"is_certified"`
	CertifiedAt *time.Time `json:"certified_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DutyStatusLog) TableName() string {
	return "duty_status_logs"
}

func (l *DutyStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsOpen reports whether the log has no end time yet.
func (l *DutyStatusLog) IsOpen() bool {
	return l.EndTime == nil
}

// Duration returns the closed span of the log, zero while it is open.
func (l *DutyStatusLog) Duration() time.Duration {
	if l.EndTime == nil {
		return 0
	}
	return l.EndTime.Sub(l.StartTime)
}

// DurationMinutes is derived and only meaningful once the log is closed.
func (l *DutyStatusLog) DurationMinutes() float64 {
	return l.Duration().Minutes()
}
