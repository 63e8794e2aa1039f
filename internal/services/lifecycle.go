package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/blob"
	"github.com/aloratech/coachcraft-backend/internal/clients/redis"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/requestdata"
)

// CascadeResult reports what one delete actually touched. Rows are retired
// inside the transaction; blobs are reclaimed only after commit, so
// BlobsReclaimed can be false while the delete itself succeeded.
type CascadeResult struct {
	RetiredCount       int64    `json:"retired_count"`
	ReclaimedBlobPaths []string `json:"reclaimed_blob_paths,omitempty"`
	BlobsReclaimed     bool     `json:"blobs_reclaimed"`
}

// LifecycleService retires whole subtrees of the catalog. Deletes are soft:
// every row flips to retired status in one transaction, and the thumbnails
// those rows referenced are deleted from the blob store afterwards. A blob
// that survives reclaim is an orphan, never a dangling DB reference.
type LifecycleService interface {
	DeleteCourse(ctx context.Context, courseID uuid.UUID) (*CascadeResult, error)
	DeleteCurriculumNode(ctx context.Context, outlineID uuid.UUID) (*CascadeResult, error)
}

type lifecycleService struct {
	db          *gorm.DB
	log         *logger.Logger
	blobs       blob.Store
	cache       *redis.CourseCache
	courseRepo  repos.CourseRepo
	introRepo   repos.IntroVideoRepo
	outlineRepo repos.CurriculumOutlineRepo
	videoRepo   repos.CurriculumVideoRepo
}

func NewLifecycleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	blobs blob.Store,
	cache *redis.CourseCache,
	courseRepo repos.CourseRepo,
	introRepo repos.IntroVideoRepo,
	outlineRepo repos.CurriculumOutlineRepo,
	videoRepo repos.CurriculumVideoRepo,
) LifecycleService {
	return &lifecycleService{
		db:          db,
		log:         baseLog.With("service", "LifecycleService"),
		blobs:       blobs,
		cache:       cache,
		courseRepo:  courseRepo,
		introRepo:   introRepo,
		outlineRepo: outlineRepo,
		videoRepo:   videoRepo,
	}
}

func (s *lifecycleService) DeleteCourse(ctx context.Context, courseID uuid.UUID) (*CascadeResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}

	result := &CascadeResult{}
	var blobPaths []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.LockActiveByID(ctx, tx, courseID)
		if err != nil {
			return apperr.Storage("lock course", err)
		}
		if course == nil {
			return apperr.ErrRowNotFound
		}
		if course.CoachID != rd.CoachID {
			return apperr.ErrUnauthorized
		}

		// Collect thumbnail paths while the rows are still readable as
		// active. After the retire below they leave every active-only query.
		intros, err := s.introRepo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return apperr.Storage("load intro videos", err)
		}
		for _, v := range intros {
			if v.ThumbnailPath != "" {
				blobPaths = append(blobPaths, v.ThumbnailPath)
			}
		}
		videos, err := s.videoRepo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return apperr.Storage("load curriculum videos", err)
		}
		for _, v := range videos {
			if v.ThumbnailPath != "" {
				blobPaths = append(blobPaths, v.ThumbnailPath)
			}
		}

		ids := []uuid.UUID{courseID}
		n, err := s.courseRepo.RetireByIDs(ctx, tx, ids)
		if err != nil {
			return apperr.Storage("retire course", err)
		}
		result.RetiredCount += n

		n, err = s.introRepo.RetireByCourseIDs(ctx, tx, ids)
		if err != nil {
			return apperr.Storage("retire intro videos", err)
		}
		result.RetiredCount += n

		n, err = s.outlineRepo.RetireByCourseIDs(ctx, tx, ids)
		if err != nil {
			return apperr.Storage("retire curriculum outlines", err)
		}
		result.RetiredCount += n

		n, err = s.videoRepo.RetireByCourseIDs(ctx, tx, ids)
		if err != nil {
			return apperr.Storage("retire curriculum videos", err)
		}
		result.RetiredCount += n
		return nil
	})
	if err != nil {
		if apperr.IsRowNotFound(err) {
			return nil, err
		}
		s.log.Error("DeleteCourse transaction failed", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentDeletionFailed, err)
	}

	result.ReclaimedBlobPaths = blobPaths
	result.BlobsReclaimed = true
	if len(blobPaths) > 0 {
		if ok := s.blobs.DeleteAll(ctx, blobPaths); !ok {
			result.BlobsReclaimed = false
			s.log.Warn("blob reclaim warning: course delete left orphans", "course_id", courseID, "paths", blobPaths)
		}
	}
	s.cache.Invalidate(ctx, courseID)

	s.log.Info("course retired", "course_id", courseID, "retired_rows", result.RetiredCount, "blobs_reclaimed", result.BlobsReclaimed)
	return result, nil
}

func (s *lifecycleService) DeleteCurriculumNode(ctx context.Context, outlineID uuid.UUID) (*CascadeResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}

	result := &CascadeResult{}
	var blobPaths []string
	var courseID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locks are taken course-first on every mutation path; this read
		// only discovers which course to lock.
		outlines, err := s.outlineRepo.GetActiveByIDs(ctx, tx, []uuid.UUID{outlineID})
		if err != nil {
			return apperr.Storage("load curriculum outline", err)
		}
		if len(outlines) == 0 {
			return apperr.ErrRowNotFound
		}
		courseID = outlines[0].CourseID

		course, err := s.courseRepo.LockActiveByID(ctx, tx, courseID)
		if err != nil {
			return apperr.Storage("lock course", err)
		}
		if course == nil {
			return apperr.ErrRowNotFound
		}
		if course.CoachID != rd.CoachID {
			return apperr.ErrUnauthorized
		}

		outline, err := s.outlineRepo.LockActiveByID(ctx, tx, outlineID)
		if err != nil {
			return apperr.Storage("lock curriculum outline", err)
		}
		if outline == nil {
			return apperr.ErrRowNotFound
		}

		video, err := s.videoRepo.LockActiveByOutlineID(ctx, tx, outlineID)
		if err != nil {
			return apperr.Storage("lock curriculum video", err)
		}
		if video != nil && video.ThumbnailPath != "" {
			blobPaths = append(blobPaths, video.ThumbnailPath)
		}

		n, err := s.outlineRepo.RetireByIDs(ctx, tx, []uuid.UUID{outlineID})
		if err != nil {
			return apperr.Storage("retire curriculum outline", err)
		}
		result.RetiredCount += n

		n, err = s.videoRepo.RetireByOutlineIDs(ctx, tx, []uuid.UUID{outlineID})
		if err != nil {
			return apperr.Storage("retire curriculum video", err)
		}
		result.RetiredCount += n
		return nil
	})
	if err != nil {
		if apperr.IsRowNotFound(err) {
			return nil, err
		}
		s.log.Error("DeleteCurriculumNode transaction failed", "outline_id", outlineID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentDeletionFailed, err)
	}

	result.ReclaimedBlobPaths = blobPaths
	result.BlobsReclaimed = true
	if len(blobPaths) > 0 {
		if ok := s.blobs.DeleteAll(ctx, blobPaths); !ok {
			result.BlobsReclaimed = false
			s.log.Warn("blob reclaim warning: node delete left orphans", "outline_id", outlineID, "paths", blobPaths)
		}
	}
	s.cache.Invalidate(ctx, courseID)

	return result, nil
}
