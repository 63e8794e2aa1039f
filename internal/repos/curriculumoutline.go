package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type CurriculumOutlineRepo interface {
	Create(ctx context.Context, tx *gorm.DB, outlines []*types.CurriculumOutline) ([]*types.CurriculumOutline, error)
	GetActiveByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CurriculumOutline, error)
	GetActiveByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CurriculumOutline, error)
	LockActiveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CurriculumOutline, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) (int64, error)
	RetireByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error)
	RetireByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error)
}

type curriculumOutlineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumOutlineRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumOutlineRepo {
	return &curriculumOutlineRepo{db: db, log: baseLog.With("repo", "CurriculumOutlineRepo")}
}

func (r *curriculumOutlineRepo) Create(ctx context.Context, tx *gorm.DB, outlines []*types.CurriculumOutline) ([]*types.CurriculumOutline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(outlines) == 0 {
		return []*types.CurriculumOutline{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&outlines).Error; err != nil {
		return nil, err
	}
	return outlines, nil
}

func (r *curriculumOutlineRepo) GetActiveByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CurriculumOutline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CurriculumOutline
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

func (r *curriculumOutlineRepo) GetActiveByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CurriculumOutline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CurriculumOutline
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("course_id IN ? AND status = ?", courseIDs, types.StatusActive).
		Order("sequence_no ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *curriculumOutlineRepo) LockActiveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CurriculumOutline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx)
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var results []*types.CurriculumOutline
	if err := q.
		Where("id = ? AND status = ?", id, types.StatusActive).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *curriculumOutlineRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.CurriculumOutline{}).
		Where("id = ? AND status = ?", id, types.StatusActive).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *curriculumOutlineRepo) RetireByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.CurriculumOutline{}).
		Where("id IN ? AND status = ?", ids, types.StatusActive).
		Update("status", types.StatusRetired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *curriculumOutlineRepo) RetireByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.CurriculumOutline{}).
		Where("course_id IN ? AND status = ?", courseIDs, types.StatusActive).
		Update("status", types.StatusRetired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
