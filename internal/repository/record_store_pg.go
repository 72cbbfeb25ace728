package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"biliticket/otpservice/internal/model"
)

type pgRecordStore struct {
	db *gorm.DB
}

// NewPGRecordStore keeps records in the otp_records table. Rows are removed
// only by TakeIfPresent or replaced by Put.
func NewPGRecordStore(db *gorm.DB) RecordStore {
	return &pgRecordStore{db: db}
}

func (s *pgRecordStore) Put(ctx context.Context, key string, record *model.OTPRecord) error {
	rec := *record
	rec.ID = key
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rec).Error
	if err != nil {
		return unavailable("pg upsert", err)
	}
	return nil
}

func (s *pgRecordStore) Get(ctx context.Context, key string) (*model.OTPRecord, error) {
	var rec model.OTPRecord
	err := s.db.WithContext(ctx).Where("id = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("pg get", err)
	}
	return &rec, nil
}

// TakeIfPresent issues a single DELETE ... RETURNING, so two concurrent
// callers cannot both receive the row.
func (s *pgRecordStore) TakeIfPresent(ctx context.Context, key string) (*model.OTPRecord, error) {
	var taken []model.OTPRecord
	res := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", key).
		Delete(&taken)
	if res.Error != nil {
		return nil, unavailable("pg delete returning", res.Error)
	}
	if res.RowsAffected == 0 || len(taken) == 0 {
		return nil, nil
	}
	return &taken[0], nil
}
