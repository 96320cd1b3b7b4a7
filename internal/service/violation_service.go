package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hos-service/internal/model"
	"hos-service/internal/rules"
)

// ViolationService runs the detection pass, persists new violations
// with deduplication, and handles resolution.
type ViolationService struct {
	logStore       LogStore
	violationStore ViolationStore
	engine         *rules.Engine
	publisher      AlertPublisher
	log            zerolog.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func NewViolationService(
	logStore LogStore,
	violationStore ViolationStore,
	engine *rules.Engine,
	publisher AlertPublisher,
	log zerolog.Logger,
) *ViolationService {
	return &ViolationService{
		logStore:       logStore,
		violationStore: violationStore,
		engine:         engine,
		publisher:      publisher,
		log:            log,
		Now:            time.Now,
	}
}

// CheckAndRecord detects violations over the driver's trailing history
// and persists only those without an unresolved counterpart of the same
// type on the same calendar date. Returns the newly recorded ones.
func (s *ViolationService) CheckAndRecord(ctx context.Context, driverID uuid.UUID) ([]model.HOSViolation, error) {
	logs, err := s.logStore.GetRecentLogs(ctx, driverID, recentLogDays)
	if err != nil {
		return nil, err
	}

	detected := s.engine.DetectViolations(driverID, logs, s.Now())
	if len(detected) == 0 {
		return nil, nil
	}

	unresolved, err := s.violationStore.GetUnresolved(ctx, driverID)
	if err != nil {
		return nil, err
	}

	recorded := make([]model.HOSViolation, 0, len(detected))
	for _, v := range detected {
		if hasUnresolvedCounterpart(unresolved, v) {
			continue
		}
		violation := v
		if err := s.violationStore.Save(ctx, &violation); err != nil {
			return nil, err
		}
		recorded = append(recorded, violation)

		s.log.Warn().
			Str("driver_id", driverID.String()).
			Str("type", string(violation.Type)).
			Str("severity", string(violation.Severity)).
			Float64("actual", violation.ActualValue).
			Float64("limit", violation.LimitValue).
			Msg("hos violation recorded")

		s.publish(ctx, violation)
	}

	return recorded, nil
}

// Resolve marks a violation resolved with mandatory notes. Resolution
// is one-way.
func (s *ViolationService) Resolve(ctx context.Context, violationID uuid.UUID, notes string) (*model.HOSViolation, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("%w: resolution notes are required", ErrInvalidInput)
	}

	violation, err := s.violationStore.GetByID(ctx, violationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if violation.IsResolved {
		return nil, ErrAlreadyResolved
	}

	now := s.Now()
	violation.IsResolved = true
	violation.ResolvedAt = &now
	violation.ResolutionNotes = notes

	if err := s.violationStore.Save(ctx, violation); err != nil {
		return nil, err
	}
	return violation, nil
}

// List returns the driver's violations, optionally filtered by
// resolution state.
func (s *ViolationService) List(ctx context.Context, driverID uuid.UUID, resolved *bool) ([]model.HOSViolation, error) {
	return s.violationStore.List(ctx, driverID, resolved)
}

func (s *ViolationService) publish(ctx context.Context, violation model.HOSViolation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishViolation(ctx, violation); err != nil {
		s.log.Error().Err(err).
			Str("violation_id", violation.ID.String()).
			Msg("failed to publish violation alert")
	}
}

// hasUnresolvedCounterpart reports whether an unresolved violation of
// the same type already exists for the same calendar date.
func hasUnresolvedCounterpart(unresolved []model.HOSViolation, candidate model.HOSViolation) bool {
	for _, existing := range unresolved {
		if existing.Type == candidate.Type && sameCalendarDay(existing.ViolationDateTime, candidate.ViolationDateTime) {
			return true
		}
	}
	return false
}

func sameCalendarDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
