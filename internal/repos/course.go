package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

// Write methods return the number of affected rows as data: zero affected
// means the target was absent or already retired, which callers treat as a
// deliberate transaction abort, not a storage fault.
type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error)
	GetActiveByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Course, error)
	GetActiveByCoachID(ctx context.Context, tx *gorm.DB, coachID uuid.UUID, limit, offset int) ([]*types.Course, error)
	CountActiveByCoachID(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) (int64, error)
	LockActiveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) (int64, error)
	RetireByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetActiveByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Course
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

func (r *courseRepo) GetActiveByCoachID(ctx context.Context, tx *gorm.DB, coachID uuid.UUID, limit, offset int) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Course
	q := transaction.WithContext(ctx).
		Where("coach_id = ? AND status = ?", coachID, types.StatusActive).
		Order("created_on DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) CountActiveByCoachID(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("coach_id = ? AND status = ?", coachID, types.StatusActive).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// LockActiveByID reads the active course row under FOR UPDATE so the
// caller's transaction owns it until commit. Returns nil when the row is
// absent or retired.
func (r *courseRepo) LockActiveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx)
	// sqlite has no row locks; its transactions lock the whole database.
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var results []*types.Course
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

func (r *courseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ? AND status = ?", id, types.StatusActive).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *courseRepo) RetireByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("id IN ? AND status = ?", ids, types.StatusActive).
		Update("status", types.StatusRetired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
