package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hos-service/internal/model"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// GetOpenLog returns the driver's single open log, or nil when the
// driver has none.
func (r *LogRepository) GetOpenLog(ctx context.Context, driverID uuid.UUID) (*model.DutyStatusLog, error) {
	var entry model.DutyStatusLog
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND end_time IS NULL", driverID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *LogRepository) GetLogsInRange(ctx context.Context, driverID uuid.UUID, from, to *time.Time) ([]model.DutyStatusLog, error) {
	query := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID)
	if from != nil {
		query = query.Where("start_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("start_time < ?", *to)
	}

	var logs []model.DutyStatusLog
	if err := query.Order("start_time ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetRecentLogs returns logs starting within the trailing number of
// days, plus the open log regardless of age.
func (r *LogRepository) GetRecentLogs(ctx context.Context, driverID uuid.UUID, days int) ([]model.DutyStatusLog, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var logs []model.DutyStatusLog
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND (start_time >= ? OR end_time IS NULL)", driverID, cutoff).
		Order("start_time ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *LogRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DutyStatusLog, error) {
	var entry model.DutyStatusLog
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *LogRepository) Save(ctx context.Context, entry *model.DutyStatusLog) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *LogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.DutyStatusLog{}, "id = ?", id).Error
}
