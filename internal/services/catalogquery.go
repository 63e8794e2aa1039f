package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/clients/redis"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/requestdata"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type CourseListing struct {
	Courses []*types.Course `json:"courses"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// CatalogQueryService is the read side of the catalog. Aggregates come from
// the cache when redis is configured; every miss falls through to the DB and
// repopulates the cache.
type CatalogQueryService interface {
	GetCourseAggregate(ctx context.Context, courseID uuid.UUID) (*types.CourseAggregate, error)
	ListCoursesByCoach(ctx context.Context, limit, offset int) (*CourseListing, error)
}

type catalogQueryService struct {
	db          *gorm.DB
	log         *logger.Logger
	cache       *redis.CourseCache
	courseRepo  repos.CourseRepo
	introRepo   repos.IntroVideoRepo
	outlineRepo repos.CurriculumOutlineRepo
	videoRepo   repos.CurriculumVideoRepo
}

func NewCatalogQueryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cache *redis.CourseCache,
	courseRepo repos.CourseRepo,
	introRepo repos.IntroVideoRepo,
	outlineRepo repos.CurriculumOutlineRepo,
	videoRepo repos.CurriculumVideoRepo,
) CatalogQueryService {
	return &catalogQueryService{
		db:          db,
		log:         baseLog.With("service", "CatalogQueryService"),
		cache:       cache,
		courseRepo:  courseRepo,
		introRepo:   introRepo,
		outlineRepo: outlineRepo,
		videoRepo:   videoRepo,
	}
}

func (s *catalogQueryService) GetCourseAggregate(ctx context.Context, courseID uuid.UUID) (*types.CourseAggregate, error) {
	if agg := s.cache.Get(ctx, courseID); agg != nil {
		return agg, nil
	}

	agg, err := loadCourseAggregate(ctx, s.db, s.courseRepo, s.introRepo, s.outlineRepo, s.videoRepo, courseID)
	if err != nil {
		if apperr.IsRowNotFound(err) {
			return nil, err
		}
		s.log.Error("GetCourseAggregate failed", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("load course aggregate: %w", err)
	}

	s.cache.Set(ctx, agg)
	return agg, nil
}

func (s *catalogQueryService) ListCoursesByCoach(ctx context.Context, limit, offset int) (*CourseListing, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.courseRepo.CountActiveByCoachID(ctx, nil, rd.CoachID)
	if err != nil {
		s.log.Error("ListCoursesByCoach count failed", "coach_id", rd.CoachID, "error", err)
		return nil, fmt.Errorf("count courses: %w", err)
	}
	courses, err := s.courseRepo.GetActiveByCoachID(ctx, nil, rd.CoachID, limit, offset)
	if err != nil {
		s.log.Error("ListCoursesByCoach page failed", "coach_id", rd.CoachID, "error", err)
		return nil, fmt.Errorf("list courses: %w", err)
	}

	return &CourseListing{
		Courses: courses,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}
