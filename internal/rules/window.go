package rules

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/model"
)

// sortByStart returns a copy of logs ordered by start time ascending.
// The engine never mutates caller slices.
func sortByStart(logs []model.DutyStatusLog) []model.DutyStatusLog {
	sorted := make([]model.DutyStatusLog, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}

// windowSinceRest returns the suffix of logs extending backward from
// the most recent entry until (and including) the first closed rest log
// of at least minRest. With a 10-hour minimum this is the duty-day
// window; with 30 minutes it is the break window. If no qualifying rest
// exists the whole history is the window.
func windowSinceRest(sorted []model.DutyStatusLog, minRest time.Duration) []model.DutyStatusLog {
	for i := len(sorted) - 1; i >= 0; i-- {
		l := sorted[i]
		if l.Status.IsRest() && !l.IsOpen() && l.Duration() >= minRest {
			return sorted[i:]
		}
	}
	return sorted
}

// drivingHours sums closed driving time in the window.
func drivingHours(window []model.DutyStatusLog) float64 {
	var minutes float64
	for _, l := range window {
		if !l.IsOpen() && l.Status == model.DutyStatusDriving {
			minutes += l.DurationMinutes()
		}
	}
	return minutes / 60
}

// onDutyHours sums closed driving and on-duty-not-driving time in the window.
func onDutyHours(window []model.DutyStatusLog) float64 {
	var minutes float64
	for _, l := range window {
		if !l.IsOpen() && l.Status.IsOnDuty() {
			minutes += l.DurationMinutes()
		}
	}
	return minutes / 60
}

// openLog returns the driver's open log, if any.
func openLog(sorted []model.DutyStatusLog) *model.DutyStatusLog {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].IsOpen() {
			return &sorted[i]
		}
	}
	return nil
}

// stillDriving reports whether the most recent log in the window has
// the driver in driving status.
func stillDriving(window []model.DutyStatusLog) bool {
	if len(window) == 0 {
		return false
	}
	return window[len(window)-1].Status == model.DutyStatusDriving
}

// lastQualifyingRestEnd returns the end of the most recent closed rest
// log meeting the required rest duration, over the full history.
func lastQualifyingRestEnd(sorted []model.DutyStatusLog) *time.Time {
	for i := len(sorted) - 1; i >= 0; i-- {
		l := sorted[i]
		if l.Status.IsRest() && !l.IsOpen() && l.Duration() >= RequiredRestHours*time.Hour {
			return l.EndTime
		}
	}
	return nil
}

// hoursSinceRest returns elapsed hours since the last qualifying rest
// and whether the missing-rest rule is breached. A history with no
// qualifying rest at all always breaches; elapsed time is then measured
// from the earliest log.
func hoursSinceRest(sorted []model.DutyStatusLog, now time.Time) (float64, bool) {
	if rest := lastQualifyingRestEnd(sorted); rest != nil {
		elapsed := now.Sub(*rest).Hours()
		return elapsed, elapsed > MaxHoursWithoutRest
	}
	if len(sorted) == 0 {
		return 0, false
	}
	return now.Sub(sorted[0].StartTime).Hours(), true
}

// lastLogID picks the triggering log for a violation: the most recent
// log in the window, optionally restricted to one status.
func lastLogID(window []model.DutyStatusLog, status model.DutyStatus) *uuid.UUID {
	for i := len(window) - 1; i >= 0; i-- {
		if status != "" && window[i].Status != status {
			continue
		}
		id := window[i].ID
		return &id
	}
	return nil
}
