package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hos-service/internal/model"
)

// LogStore persists duty-status logs. GetOpenLog returns (nil, nil)
// when the driver has no open log; GetByID surfaces the storage
// not-found error unchanged. The "one open log per driver" invariant is
// backed by a partial unique index in the store, not by any lock here.
type LogStore interface {
	GetOpenLog(ctx context.Context, driverID uuid.UUID) (*model.DutyStatusLog, error)
	GetLogsInRange(ctx context.Context, driverID uuid.UUID, from, to *time.Time) ([]model.DutyStatusLog, error)
	GetRecentLogs(ctx context.Context, driverID uuid.UUID, days int) ([]model.DutyStatusLog, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.DutyStatusLog, error)
	Save(ctx context.Context, log *model.DutyStatusLog) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ViolationStore persists detected violations.
type ViolationStore interface {
	GetUnresolved(ctx context.Context, driverID uuid.UUID) ([]model.HOSViolation, error)
	List(ctx context.Context, driverID uuid.UUID, resolved *bool) ([]model.HOSViolation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.HOSViolation, error)
	Save(ctx context.Context, violation *model.HOSViolation) error
}

// AlertPublisher pushes newly recorded violations to interested
// consumers. Publishing is best effort and never fails a request.
type AlertPublisher interface {
	PublishViolation(ctx context.Context, violation model.HOSViolation) error
}
