package repository

import (
	"context"

	"gorm.io/gorm"

	"biliticket/otpservice/internal/model"
)

type pgAuditRepository struct {
	db *gorm.DB
}

func NewPGAuditRepository(db *gorm.DB) AuditRepository {
	return &pgAuditRepository{db: db}
}

func (r *pgAuditRepository) Create(ctx context.Context, event *model.OTPAuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *pgAuditRepository) ListByIdentityKey(ctx context.Context, identityKey string, limit int) ([]model.OTPAuditEvent, error) {
	var events []model.OTPAuditEvent
	q := r.db.WithContext(ctx).Where("identity_key = ?", identityKey).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
