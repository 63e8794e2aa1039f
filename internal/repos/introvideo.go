package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type IntroVideoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, videos []*types.IntroVideo) ([]*types.IntroVideo, error)
	GetActiveByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.IntroVideo, error)
	LockActiveByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.IntroVideo, error)
	UpdateFieldsByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, fields map[string]interface{}) (int64, error)
	RetireByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error)
}

type introVideoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntroVideoRepo(db *gorm.DB, baseLog *logger.Logger) IntroVideoRepo {
	return &introVideoRepo{db: db, log: baseLog.With("repo", "IntroVideoRepo")}
}

func (r *introVideoRepo) Create(ctx context.Context, tx *gorm.DB, videos []*types.IntroVideo) ([]*types.IntroVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(videos) == 0 {
		return []*types.IntroVideo{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *introVideoRepo) GetActiveByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.IntroVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.IntroVideo
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

// LockActiveByCourseID pins the active intro video row for the duration of
// the caller's transaction, so the thumbnail path it reports stays the
// current one until the caller commits its replacement.
func (r *introVideoRepo) LockActiveByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.IntroVideo, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx)
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var results []*types.IntroVideo
	if err := q.
		Where("course_id = ? AND status = ?", courseID, types.StatusActive).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *introVideoRepo) UpdateFieldsByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.IntroVideo{}).
		Where("course_id = ? AND status = ?", courseID, types.StatusActive).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *introVideoRepo) RetireByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.IntroVideo{}).
		Where("course_id IN ? AND status = ?", courseIDs, types.StatusActive).
		Update("status", types.StatusRetired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
