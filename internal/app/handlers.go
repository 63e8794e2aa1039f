package app

import (
	"github.com/aloratech/coachcraft-backend/internal/handlers"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/middleware"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Course     *handlers.CourseHandler
	Curriculum *handlers.CurriculumHandler
}

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       handlers.NewAuthHandler(log, s.Auth),
		Course:     handlers.NewCourseHandler(log, s.Authoring, s.Lifecycle, s.Catalog),
		Curriculum: handlers.NewCurriculumHandler(log, s.Authoring, s.Lifecycle),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, s.Auth),
	}
}
