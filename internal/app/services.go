package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/blob"
	"github.com/aloratech/coachcraft-backend/internal/clients/redis"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Authoring services.AuthoringService
	Lifecycle services.LifecycleService
	Catalog   services.CatalogQueryService
}

func wireBlobStore(log *logger.Logger, cfg Config) (blob.Store, error) {
	switch cfg.BlobDriver {
	case "local":
		return blob.NewLocalStore(log, cfg.BlobLocalRoot)
	case "gcs":
		return blob.NewGCSStore(log)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	blobs, err := wireBlobStore(log, cfg)
	if err != nil {
		return Services{}, fmt.Errorf("init blob store: %w", err)
	}

	// The cache is optional; a nil *CourseCache is a working no-op.
	var cache *redis.CourseCache
	if cfg.RedisEnabled {
		cache, err = redis.NewCourseCache(log)
		if err != nil {
			return Services{}, fmt.Errorf("init course cache: %w", err)
		}
	}

	return Services{
		Auth:      services.NewAuthService(db, log, r.Coach, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Authoring: services.NewAuthoringService(db, log, blobs, cache, r.Course, r.IntroVideo, r.CurriculumItem, r.CurriculumVideo),
		Lifecycle: services.NewLifecycleService(db, log, blobs, cache, r.Course, r.IntroVideo, r.CurriculumItem, r.CurriculumVideo),
		Catalog:   services.NewCatalogQueryService(db, log, cache, r.Course, r.IntroVideo, r.CurriculumItem, r.CurriculumVideo),
	}, nil
}
