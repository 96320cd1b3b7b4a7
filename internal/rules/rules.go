// Package rules evaluates FMCSA hours-of-service regulations over a
// driver's duty-status history. The engine is pure: it never reads the
// clock or touches storage, so callers can evaluate concurrently and
// repeatedly with the same inputs.
package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/model"
)

// Regulation thresholds, in hours unless noted.
const (
	MaxDrivingHoursPerDay      = 11.0
	MaxOnDutyHoursPerDay       = 14.0
	RequiredRestHours          = 10.0
	RequiredBreakMinutes       = 30.0
	MaxDrivingHoursBeforeBreak = 8.0

	// MaxHoursWithoutRest triggers the missing-rest rule once that much
	// time has elapsed since the last qualifying rest. The value
	// intentionally matches the daily on-duty limit.
	MaxHoursWithoutRest = 14.0
)

// Cycle is the multi-day on-duty cap a carrier operates under.
type Cycle struct {
	Name     string
	MaxHours float64
	Days     int
}

var (
	Cycle60Hour7Day = Cycle{Name: "60_7", MaxHours: 60, Days: 7}
	Cycle70Hour8Day = Cycle{Name: "70_8", MaxHours: 70, Days: 8}
)

// CycleByName returns the cycle for a config value, defaulting to 60/7.
func CycleByName(name string) Cycle {
	if name == Cycle70Hour8Day.Name {
		return Cycle70Hour8Day
	}
	return Cycle60Hour7Day
}

// Engine evaluates the HOS rules for a fixed cycle. The zero value is
// not usable; construct with NewEngine.
type Engine struct {
	cycle Cycle
}

func NewEngine(cycle Cycle) *Engine {
	return &Engine{cycle: cycle}
}

func (e *Engine) Cycle() Cycle {
	return e.cycle
}

// ComputeSummary derives the driver's hour budgets at the given
// evaluation time from the supplied history. Logs may arrive in any
// order; open logs contribute to current status only.
func (e *Engine) ComputeSummary(driverID uuid.UUID, driverName string, logs []model.DutyStatusLog, now time.Time) model.HOSSummary {
	sorted := sortByStart(logs)

	window := windowSinceRest(sorted, RequiredRestHours*time.Hour)
	drivenHours := drivingHours(window)
	onDutyHours := onDutyHours(window)
	cycleHours := e.cycleHours(sorted, now)

	breakWindow := windowSinceRest(sorted, RequiredBreakMinutes*time.Minute)
	sinceBreak := drivingHours(breakWindow)

	summary := model.HOSSummary{
		DriverID:   driverID,
		DriverName: driverName,

		HoursDrivenToday:    round2(drivenHours),
		AvailableDriveHours: round2(math.Max(0, MaxDrivingHoursPerDay-drivenHours)),

		OnDutyHoursToday:     round2(onDutyHours),
		AvailableOnDutyHours: round2(math.Max(0, MaxOnDutyHoursPerDay-onDutyHours)),

		CycleHours:          round2(cycleHours),
		AvailableCycleHours: round2(math.Max(0, e.cycle.MaxHours-cycleHours)),

		HoursUntilBreakRequired: round2(math.Max(0, MaxDrivingHoursBeforeBreak-sinceBreak)),
		LastRestPeriod:          lastQualifyingRestEnd(sorted),
	}

	if open := openLog(sorted); open != nil {
		summary.CurrentStatus = open.Status
		summary.CurrentStatusSince = open.StartTime
	} else {
		summary.CurrentStatus = model.DutyStatusOffDuty
		summary.CurrentStatusSince = now
	}

	violations := e.DetectViolations(driverID, logs, now)
	summary.IsInViolation = len(violations) > 0
	summary.Violations = make([]string, 0, len(violations))
	for _, v := range violations {
		summary.Violations = append(summary.Violations, v.Description)
	}

	return summary
}

// DetectViolations runs the five HOS rules against the supplied history
// and returns every breach found. Nothing is persisted here.
func (e *Engine) DetectViolations(driverID uuid.UUID, logs []model.DutyStatusLog, now time.Time) []model.HOSViolation {
	if len(logs) == 0 {
		return nil
	}
	sorted := sortByStart(logs)
	window := windowSinceRest(sorted, RequiredRestHours*time.Hour)

	var violations []model.HOSViolation

	if driven := drivingHours(window); driven > MaxDrivingHoursPerDay {
		violations = append(violations, model.HOSViolation{
			DriverID:          driverID,
			LogID:             lastLogID(window, model.DutyStatusDriving),
			Type:              model.ViolationTypeDrivingLimit11Hour,
			Severity:          model.ViolationSeveritySerious,
			ActualValue:       round2(driven),
			LimitValue:        MaxDrivingHoursPerDay,
			Description:       fmt.Sprintf("Driven %.1f hours in the current duty day, exceeding the %.0f-hour driving limit", driven, MaxDrivingHoursPerDay),
			ViolationDateTime: now,
		})
	}

	if onDuty := onDutyHours(window); onDuty > MaxOnDutyHoursPerDay {
		violations = append(violations, model.HOSViolation{
			DriverID:          driverID,
			LogID:             lastLogID(window, ""),
			Type:              model.ViolationTypeOnDutyLimit14Hour,
			Severity:          model.ViolationSeveritySerious,
			ActualValue:       round2(onDuty),
			LimitValue:        MaxOnDutyHoursPerDay,
			Description:       fmt.Sprintf("On duty %.1f hours in the current duty day, exceeding the %.0f-hour on-duty limit", onDuty, MaxOnDutyHoursPerDay),
			ViolationDateTime: now,
		})
	}

	if cycleHours := e.cycleHours(sorted, now); cycleHours > e.cycle.MaxHours {
		violations = append(violations, model.HOSViolation{
			DriverID:          driverID,
			Type:              model.ViolationTypeWeeklyLimit,
			Severity:          model.ViolationSeverityCritical,
			ActualValue:       round2(cycleHours),
			LimitValue:        e.cycle.MaxHours,
			Description:       fmt.Sprintf("On duty %.1f hours in the last %d days, exceeding the %.0f-hour cycle limit", cycleHours, e.cycle.Days, e.cycle.MaxHours),
			ViolationDateTime: now,
		})
	}

	breakWindow := windowSinceRest(sorted, RequiredBreakMinutes*time.Minute)
	if sinceBreak := drivingHours(breakWindow); sinceBreak > MaxDrivingHoursBeforeBreak && stillDriving(breakWindow) {
		violations = append(violations, model.HOSViolation{
			DriverID:          driverID,
			LogID:             lastLogID(breakWindow, model.DutyStatusDriving),
			Type:              model.ViolationTypeBreakAfter8Hours,
			Severity:          model.ViolationSeverityModerate,
			ActualValue:       round2(sinceBreak),
			LimitValue:        MaxDrivingHoursBeforeBreak,
			Description:       fmt.Sprintf("Driven %.1f hours without a %.0f-minute break, exceeding the %.0f-hour limit", sinceBreak, RequiredBreakMinutes, MaxDrivingHoursBeforeBreak),
			ViolationDateTime: now,
		})
	}

	if sinceRest, breached := hoursSinceRest(sorted, now); breached {
		violations = append(violations, model.HOSViolation{
			DriverID:          driverID,
			Type:              model.ViolationTypeRequiredRest10Hour,
			Severity:          model.ViolationSeverityCritical,
			ActualValue:       round2(sinceRest),
			LimitValue:        MaxHoursWithoutRest,
			Description:       fmt.Sprintf("%.1f hours since the last %.0f-hour rest period", sinceRest, RequiredRestHours),
			ViolationDateTime: now,
		})
	}

	return violations
}

// Fixed refusal reasons for exhausted budgets, checked in priority order.
const (
	reasonNoDriveHours  = "no driving hours available under the daily driving limit"
	reasonNoOnDutyHours = "no on-duty hours available under the daily on-duty limit"
	reasonNoCycleHours  = "no on-duty hours available in the current cycle"
)

// CanDrive reports whether the driver may legally drive right now.
// A violation at or above Serious severity blocks driving outright;
// otherwise an exhausted hour budget blocks it.
func (e *Engine) CanDrive(driverID uuid.UUID, logs []model.DutyStatusLog, now time.Time) (bool, string) {
	for _, v := range e.DetectViolations(driverID, logs, now) {
		if v.Severity.AtLeast(model.ViolationSeveritySerious) {
			return false, v.Description
		}
	}

	summary := e.ComputeSummary(driverID, "", logs, now)
	switch {
	case summary.AvailableDriveHours <= 0:
		return false, reasonNoDriveHours
	case summary.AvailableOnDutyHours <= 0:
		return false, reasonNoOnDutyHours
	case summary.AvailableCycleHours <= 0:
		return false, reasonNoCycleHours
	}
	return true, ""
}

func (e *Engine) cycleHours(sorted []model.DutyStatusLog, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -e.cycle.Days)
	var minutes float64
	for _, l := range sorted {
		if l.IsOpen() || !l.Status.IsOnDuty() {
			continue
		}
		if l.StartTime.Before(cutoff) {
			continue
		}
		minutes += l.DurationMinutes()
	}
	return minutes / 60
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
