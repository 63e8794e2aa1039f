package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

const courseCacheTTL = 10 * time.Minute

// CourseCache is a read-through cache for assembled course aggregates.
// It is strictly optional: a nil *CourseCache is a valid no-op receiver,
// so callers never branch on whether redis is configured.
type CourseCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewCourseCache(log *logger.Logger) (*CourseCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &CourseCache{
		log: log.With("service", "RedisCourseCache"),
		rdb: rdb,
	}, nil
}

func courseKey(courseID uuid.UUID) string {
	return "course:aggregate:" + courseID.String()
}

// Get returns the cached aggregate, or nil on miss. Cache failures are
// logged and reported as misses so the database read always proceeds.
func (c *CourseCache) Get(ctx context.Context, courseID uuid.UUID) *types.CourseAggregate {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, courseKey(courseID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("course cache read failed", "course_id", courseID, "error", err)
		}
		return nil
	}
	var agg types.CourseAggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		c.log.Warn("bad course cache payload", "course_id", courseID, "error", err)
		_ = c.rdb.Del(ctx, courseKey(courseID)).Err()
		return nil
	}
	return &agg
}

func (c *CourseCache) Set(ctx context.Context, agg *types.CourseAggregate) {
	if c == nil || c.rdb == nil || agg == nil {
		return
	}
	raw, err := json.Marshal(agg)
	if err != nil {
		c.log.Warn("course cache marshal failed", "course_id", agg.Course.ID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, courseKey(agg.Course.ID), raw, courseCacheTTL).Err(); err != nil {
		c.log.Warn("course cache write failed", "course_id", agg.Course.ID, "error", err)
	}
}

// Invalidate drops the cached aggregate after any write to the course tree.
func (c *CourseCache) Invalidate(ctx context.Context, courseID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, courseKey(courseID)).Err(); err != nil {
		c.log.Warn("course cache invalidate failed", "course_id", courseID, "error", err)
	}
}

func (c *CourseCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
