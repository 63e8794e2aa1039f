package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type CoachRepo interface {
	Create(ctx context.Context, tx *gorm.DB, coaches []*types.Coach) ([]*types.Coach, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Coach, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Coach, error)
}

type coachRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCoachRepo(db *gorm.DB, baseLog *logger.Logger) CoachRepo {
	return &coachRepo{db: db, log: baseLog.With("repo", "CoachRepo")}
}

func (r *coachRepo) Create(ctx context.Context, tx *gorm.DB, coaches []*types.Coach) ([]*types.Coach, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(coaches) == 0 {
		return []*types.Coach{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&coaches).Error; err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *coachRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Coach, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Coach
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, types.StatusActive).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *coachRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Coach, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Coach
	if len(emails) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("email IN ? AND status = ?", emails, types.StatusActive).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
