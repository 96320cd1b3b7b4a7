package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ViolationType string

const (
	ViolationTypeDrivingLimit11Hour ViolationType = "DRIVING_LIMIT_11_HOUR"
	ViolationTypeOnDutyLimit14Hour  ViolationType = "ON_DUTY_LIMIT_14_HOUR"
	ViolationTypeWeeklyLimit        ViolationType = "WEEKLY_LIMIT_60_HOUR"
	ViolationTypeBreakAfter8Hours   ViolationType = "BREAK_AFTER_8_HOURS"
	ViolationTypeRequiredRest10Hour ViolationType = "REQUIRED_REST_10_HOUR"
)

type ViolationSeverity string

const (
	ViolationSeverityMinor    ViolationSeverity = "MINOR"
	ViolationSeverityModerate ViolationSeverity = "MODERATE"
	ViolationSeveritySerious  ViolationSeverity = "SERIOUS"
	ViolationSeverityCritical ViolationSeverity = "CRITICAL"
)

var severityRank = map[ViolationSeverity]int{
	ViolationSeverityMinor:    1,
	ViolationSeverityModerate: 2,
	ViolationSeveritySerious:  3,
	ViolationSeverityCritical: 4,
}

// AtLeast reports whether s is ordered at or above other
// (Minor < Moderate < Serious < Critical).
func (s ViolationSeverity) AtLeast(other ViolationSeverity) bool {
	return severityRank[s] >= severityRank[other]
}

// HOSViolation is a detected hours-of-service regulation breach.
// Actual and limit values are hours for the breached quantity.
type HOSViolation struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	DriverID          uuid.UUID         `gorm:"type:uuid;not null" json:"driver_id"`
	LogID             *uuid.UUID        `gorm:"type:uuid" json:"log_id,omitempty"`
	Type              ViolationType     `gorm:"type:varchar(64);not null" json:"type"`
	Severity          ViolationSeverity `gorm:"type:violation_severity;not null" json:"severity"`
	ActualValue       float64           `gorm:"type:numeric(6,2);not null" json:"actual_value"`
	LimitValue        float64           `gorm:"type:numeric(6,2);not null" json:"limit_value"`
	Description       string            `gorm:"type:text;not null" json:"description"`
	ViolationDateTime time.Time         `gorm:"not null" json:"violation_date_time"`
	IsResolved        bool              `gorm:"not null;default:false" json:"is_resolved"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	ResolutionNotes   string            `gorm:"type:text" json:"resolution_notes,omitempty"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (HOSViolation) TableName() string {
	return "hos_violations"
}

func (v *HOSViolation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
