package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

// loadCourseAggregate assembles the full course view from active rows only:
// the course, its intro video and its outline nodes in sequence order, each
// paired with its video row when one exists.
func loadCourseAggregate(
	ctx context.Context,
	tx *gorm.DB,
	courseRepo repos.CourseRepo,
	introRepo repos.IntroVideoRepo,
	outlineRepo repos.CurriculumOutlineRepo,
	videoRepo repos.CurriculumVideoRepo,
	courseID uuid.UUID,
) (*types.CourseAggregate, error) {
	courses, err := courseRepo.GetActiveByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, apperr.Storage("load course", err)
	}
	if len(courses) == 0 {
		return nil, apperr.ErrRowNotFound
	}
	agg := &types.CourseAggregate{Course: courses[0]}

	intros, err := introRepo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, apperr.Storage("load intro video", err)
	}
	if len(intros) > 0 {
		agg.IntroVideo = intros[0]
	}

	outlines, err := outlineRepo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, apperr.Storage("load curriculum outlines", err)
	}
	videos, err := videoRepo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, apperr.Storage("load curriculum videos", err)
	}
	videoByOutline := make(map[uuid.UUID]*types.CurriculumVideo, len(videos))
	for _, v := range videos {
		videoByOutline[v.CurriculumOutlineID] = v
	}
	agg.Nodes = make([]*types.CurriculumNode, 0, len(outlines))
	for _, o := range outlines {
		agg.Nodes = append(agg.Nodes, &types.CurriculumNode{
			Outline: o,
			Video:   videoByOutline[o.ID],
		})
	}
	return agg, nil
}
