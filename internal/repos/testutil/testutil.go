package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/aloratech/coachcraft-backend/internal/db"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a process-wide in-memory sqlite database with the full catalog
// schema, including the partial unique indexes the migration installs.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		var err error
		gdb, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}
		// Shared-cache sqlite misbehaves with concurrent writers.
		sqlDB, err := gdb.DB()
		if err != nil {
			dbErr = err
			return
		}
		sqlDB.SetMaxOpenConns(1)

		if err := db.Migrate(gdb); err != nil {
			dbErr = err
			return
		}
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

// Tx opens a transaction rolled back when the test finishes, so repo tests
// never leak rows into the shared database.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func SeedCoach(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Coach {
	tb.Helper()
	c := &types.Coach{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		CreatedOn: time.Now().UTC(),
		Status:    types.StatusActive,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed coach: %v", err)
	}
	return c
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, coachID uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:             uuid.New(),
		CoachID:        coachID,
		Name:           "course",
		TargetAudience: "beginners",
		Duration:       "4 weeks",
		CreatedOn:      time.Now().UTC(),
		Status:         types.StatusActive,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedIntroVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, coachID uuid.UUID, thumbnailPath string) *types.IntroVideo {
	tb.Helper()
	v := &types.IntroVideo{
		ID:            uuid.New(),
		CourseID:      courseID,
		CoachID:       coachID,
		Domain:        "fitness",
		Subdomain:     "yoga",
		Title:         "intro",
		VideoURL:      "https://videos.example.com/intro",
		ThumbnailPath: thumbnailPath,
		CreatedOn:     time.Now().UTC(),
		Status:        types.StatusActive,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed intro video: %v", err)
	}
	return v
}

func SeedCurriculumOutline(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, seq int) *types.CurriculumOutline {
	tb.Helper()
	o := &types.CurriculumOutline{
		ID:         uuid.New(),
		CourseID:   courseID,
		HeaderType: types.HeaderTypeChapter,
		SequenceNo: seq,
		Title:      "outline",
		CreatedOn:  time.Now().UTC(),
		Status:     types.StatusActive,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed curriculum outline: %v", err)
	}
	return o
}

func SeedCurriculumVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, outlineID uuid.UUID, thumbnailPath string) *types.CurriculumVideo {
	tb.Helper()
	v := &types.CurriculumVideo{
		ID:                  uuid.New(),
		CourseID:            courseID,
		CurriculumOutlineID: outlineID,
		VideoURL:            "https://videos.example.com/lesson",
		ThumbnailPath:       thumbnailPath,
		CreatedOn:           time.Now().UTC(),
		Status:              types.StatusActive,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed curriculum video: %v", err)
	}
	return v
}
