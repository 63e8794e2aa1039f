package app

import (
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/repos"
)

type Repos struct {
	Coach           repos.CoachRepo
	Course          repos.CourseRepo
	IntroVideo      repos.IntroVideoRepo
	CurriculumItem  repos.CurriculumOutlineRepo
	CurriculumVideo repos.CurriculumVideoRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Coach:           repos.NewCoachRepo(db, log),
		Course:          repos.NewCourseRepo(db, log),
		IntroVideo:      repos.NewIntroVideoRepo(db, log),
		CurriculumItem:  repos.NewCurriculumOutlineRepo(db, log),
		CurriculumVideo: repos.NewCurriculumVideoRepo(db, log),
	}
}
