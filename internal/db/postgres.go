package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
	"github.com/aloratech/coachcraft-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "coachcraft", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := Migrate(s.db); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

// Migrate creates the catalog schema plus the partial unique indexes that
// make the one-active-video-per-owner conventions a storage-level guarantee
// instead of an orchestration convention.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&types.Coach{},
		&types.Course{},
		&types.IntroVideo{},
		&types.CurriculumOutline{},
		&types.CurriculumVideo{},
	); err != nil {
		return err
	}
	if err := gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_intro_video_active_course
		ON intro_video (course_id) WHERE status = 1
	`).Error; err != nil {
		return fmt.Errorf("create uq_intro_video_active_course: %w", err)
	}
	if err := gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_curriculum_video_active_outline
		ON curriculum_video (curriculum_outline_id) WHERE status = 1
	`).Error; err != nil {
		return fmt.Errorf("create uq_curriculum_video_active_outline: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
