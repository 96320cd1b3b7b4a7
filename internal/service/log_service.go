package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hos-service/internal/model"
	"hos-service/internal/rules"
)

// recentLogDays is how far back the orchestration loads history before
// evaluating the rules engine. One day beyond the longest cycle window
// so the trailing cycle is always fully covered.
const recentLogDays = 8

// LogService owns the duty-status log lifecycle: start, complete,
// change status, edit, certify and delete. Completing a log triggers
// the violation detection pass via the ViolationService.
type LogService struct {
	logStore   LogStore
	violations *ViolationService
	engine     *rules.Engine
	log        zerolog.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func NewLogService(logStore LogStore, violations *ViolationService, engine *rules.Engine, log zerolog.Logger) *LogService {
	return &LogService{
		logStore:   logStore,
		violations: violations,
		engine:     engine,
		log:        log,
		Now:        time.Now,
	}
}

type StartLogInput struct {
	Status    model.DutyStatus
	Location  string
	Latitude  *float64
	Longitude *float64
	VehicleID *uuid.UUID
	Odometer  *float64
	Source    model.LogSource
}

// StartLog opens a new log for the driver. It conflicts if any log is
// still open, naming the blocking status in the error.
func (s *LogService) StartLog(ctx context.Context, driverID uuid.UUID, input StartLogInput) (*model.DutyStatusLog, error) {
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown duty status %q", ErrInvalidInput, input.Status)
	}

	open, err := s.logStore.GetOpenLog(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, fmt.Errorf("%w: driver already has an open %s log", ErrConflict, open.Status)
	}

	source := input.Source
	if source == "" {
		source = model.LogSourceManual
	}

	entry := &model.DutyStatusLog{
		DriverID:  driverID,
		Status:    input.Status,
		StartTime: s.Now(),
		Location:  input.Location,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		VehicleID: input.VehicleID,
		Odometer:  input.Odometer,
		Source:    source,
	}
	if err := s.logStore.Save(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("driver_id", driverID.String()).
		Str("status", string(input.Status)).
		Msg("duty status log started")

	return entry, nil
}

// CompleteLog closes the driver's open log and runs the violation
// detection pass over the trailing history.
func (s *LogService) CompleteLog(ctx context.Context, driverID uuid.UUID, notes string) (*model.DutyStatusLog, error) {
	open, err := s.logStore.GetOpenLog(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, fmt.Errorf("%w: driver has no open log", ErrNotFound)
	}

	now := s.Now()
	open.EndTime = &now
	if notes != "" {
		if open.Notes != "" {
			open.Notes += "\n"
		}
		open.Notes += notes
	}
	if err := s.logStore.Save(ctx, open); err != nil {
		return nil, err
	}

	if _, err := s.violations.CheckAndRecord(ctx, driverID); err != nil {
		return nil, err
	}

	return open, nil
}

// ChangeStatus completes the open log, if any, then starts a new one
// with the target status. The two writes are not atomic, but the driver
// is never left with two open logs.
func (s *LogService) ChangeStatus(ctx context.Context, driverID uuid.UUID, input StartLogInput) (*model.DutyStatusLog, error) {
	open, err := s.logStore.GetOpenLog(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		now := s.Now()
		open.EndTime = &now
		if err := s.logStore.Save(ctx, open); err != nil {
			return nil, err
		}
	}

	entry, err := s.StartLog(ctx, driverID, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.violations.CheckAndRecord(ctx, driverID); err != nil {
		return nil, err
	}

	return entry, nil
}

type EditLogInput struct {
	Reason    string
	StartTime *time.Time
	EndTime   *time.Time
}

// EditLog adjusts the times of a non-certified log. The edit marker and
// reason are recorded and never cleared.
func (s *LogService) EditLog(ctx context.Context, logID uuid.UUID, input EditLogInput) (*model.DutyStatusLog, error) {
	if input.Reason == "" {
		return nil, fmt.Errorf("%w: edit reason is required", ErrInvalidInput)
	}

	entry, err := s.getLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry.IsCertified {
		return nil, ErrCertified
	}

	if input.StartTime != nil {
		entry.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		entry.EndTime = input.EndTime
	}
	if entry.EndTime != nil && entry.EndTime.Before(entry.StartTime) {
		return nil, fmt.Errorf("%w: end time precedes start time", ErrInvalidInput)
	}

	now := s.Now()
	entry.IsEdited = true
	entry.EditedAt = &now
	entry.EditReason = input.Reason

	if err := s.logStore.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// CertifyDay certifies every not-yet-certified log of the driver on the
// given calendar day. Certification is one-way.
func (s *LogService) CertifyDay(ctx context.Context, driverID uuid.UUID, day time.Time) error {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	logs, err := s.logStore.GetLogsInRange(ctx, driverID, &dayStart, &dayEnd)
	if err != nil {
		return err
	}

	now := s.Now()
	for i := range logs {
		if logs[i].IsCertified {
			continue
		}
		logs[i].IsCertified = true
		logs[i].CertifiedAt = &now
		if err := s.logStore.Save(ctx, &logs[i]); err != nil {
			return err
		}
	}

	s.log.Info().
		Str("driver_id", driverID.String()).
		Str("day", dayStart.Format("2006-01-02")).
		Int("logs", len(logs)).
		Msg("day certified")

	return nil
}

// DeleteLog removes a non-certified log.
func (s *LogService) DeleteLog(ctx context.Context, logID uuid.UUID) error {
	entry, err := s.getLog(ctx, logID)
	if err != nil {
		return err
	}
	if entry.IsCertified {
		return ErrCertified
	}
	return s.logStore.Delete(ctx, logID)
}

// ListLogs returns the driver's logs in the given range, newest last.
func (s *LogService) ListLogs(ctx context.Context, driverID uuid.UUID, from, to *time.Time) ([]model.DutyStatusLog, error) {
	return s.logStore.GetLogsInRange(ctx, driverID, from, to)
}

// GetSummary computes the driver's HOS summary from the trailing history.
func (s *LogService) GetSummary(ctx context.Context, driverID uuid.UUID, driverName string) (*model.HOSSummary, error) {
	logs, err := s.logStore.GetRecentLogs(ctx, driverID, recentLogDays)
	if err != nil {
		return nil, err
	}
	summary := s.engine.ComputeSummary(driverID, driverName, logs, s.Now())
	return &summary, nil
}

// CanDrive reports whether the driver may legally drive right now.
func (s *LogService) CanDrive(ctx context.Context, driverID uuid.UUID) (bool, string, error) {
	logs, err := s.logStore.GetRecentLogs(ctx, driverID, recentLogDays)
	if err != nil {
		return false, "", err
	}
	allowed, reason := s.engine.CanDrive(driverID, logs, s.Now())
	return allowed, reason, nil
}

func (s *LogService) getLog(ctx context.Context, logID uuid.UUID) (*model.DutyStatusLog, error) {
	entry, err := s.logStore.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}
