package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type CurriculumVideoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, videos []*types.CurriculumVideo) ([]*types.CurriculumVideo, error)
	GetActiveByOutlineIDs(ctx context.Context, tx *gorm.DB, outlineIDs []uuid.UUID) ([]*types.CurriculumVideo, error)
	GetActiveByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CurriculumVideo, error)
	LockActiveByOutlineID(ctx context.Context, tx *gorm.DB, outlineID uuid.UUID) (*types.CurriculumVideo, error)
	UpdateFieldsByOutlineID(ctx context.Context, tx *gorm.DB, outlineID uuid.UUID, fields map[string]interface{}) (int64, error)
	RetireByOutlineIDs(ctx context.Context, tx *gorm.DB, outlineIDs []uuid.UUID) (int64, error)
	RetireByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error)
}

type curriculumVideoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumVideoRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumVideoRepo {
	return &curriculumVideoRepo{db: db, log: baseLog.With("repo", "CurriculumVideoRepo")}
}

func (r *curriculumVideoRepo) Create(ctx context.Context, tx *gorm.DB, videos []*types.CurriculumVideo) ([]*types.CurriculumVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(videos) == 0 {
		return []*types.CurriculumVideo{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *curriculumVideoRepo) GetActiveByOutlineIDs(ctx context.Context, tx *gorm.DB, outlineIDs []uuid.UUID) ([]*types.CurriculumVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CurriculumVideo
	if len(outlineIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("curriculum_outline_id IN ? AND status = ?", outlineIDs, types.StatusActive).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *curriculumVideoRepo) GetActiveByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CurriculumVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CurriculumVideo
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("course_id IN ? AND status = ?", courseIDs, types.StatusActive).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *curriculumVideoRepo) LockActiveByOutlineID(ctx context.Context, tx *gorm.DB, outlineID uuid.UUID) (*types.CurriculumVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx)
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var results []*types.CurriculumVideo
	if err := q.
		Where("curriculum_outline_id = ? AND status = ?", outlineID, types.StatusActive).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *curriculumVideoRepo) UpdateFieldsByOutlineID(ctx context.Context, tx *gorm.DB, outlineID uuid.UUID, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.CurriculumVideo{}).
		Where("curriculum_outline_id = ? AND status = ?", outlineID, types.StatusActive).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *curriculumVideoRepo) RetireByOutlineIDs(ctx context.Context, tx *gorm.DB, outlineIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(outlineIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.CurriculumVideo{}).
		Where("curriculum_outline_id IN ? AND status = ?", outlineIDs, types.StatusActive).
		Update("status", types.StatusRetired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *curriculumVideoRepo) RetireByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.CurriculumVideo{}).
		Where("course_id IN ? AND status = ?", courseIDs, types.StatusActive).
		Update("status", types.StatusRetired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
