package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hos-service/internal/model"
)

type ViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

func (r *ViolationRepository) GetUnresolved(ctx context.Context, driverID uuid.UUID) ([]model.HOSViolation, error) {
	var violations []model.HOSViolation
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND is_resolved = FALSE", driverID).
		Order("violation_date_time DESC").
		Find(&violations).Error
	if err != nil {
		return nil, err
	}
	return violations, nil
}

func (r *ViolationRepository) List(ctx context.Context, driverID uuid.UUID, resolved *bool) ([]model.HOSViolation, error) {
	query := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID)
	if resolved != nil {
		query = query.Where("is_resolved = ?", *resolved)
	}

	var violations []model.HOSViolation
	if err := query.Order("violation_date_time DESC").Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

func (r *ViolationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.HOSViolation, error) {
	var violation model.HOSViolation
	if err := r.db.WithContext(ctx).First(&violation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &violation, nil
}

func (r *ViolationRepository) Save(ctx context.Context, violation *model.HOSViolation) error {
	return r.db.WithContext(ctx).Save(violation).Error
}
