package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/aloratech/coachcraft-backend/internal/repos/testutil"
)

func TestCurriculumOutlineRepoOrdering(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewCurriculumOutlineRepo(gdb, testutil.Logger(t))

	coach := testutil.SeedCoach(t, ctx, tx, "outline-order@example.com")
	course := testutil.SeedCourse(t, ctx, tx, coach.ID)

	// Insert out of order; reads must come back by sequence number.
	third := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 3)
	first := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 1)
	second := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 2)

	got, err := repo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{course.ID})
	if err != nil {
		t.Fatalf("GetActiveByCourseIDs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 outlines, got %d", len(got))
	}
	want := []uuid.UUID{first.ID, second.ID, third.ID}
	for i, o := range got {
		if o.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], o.ID)
		}
	}
}

func TestCurriculumOutlineRepoRetireByIDs(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewCurriculumOutlineRepo(gdb, testutil.Logger(t))

	coach := testutil.SeedCoach(t, ctx, tx, "outline-retire@example.com")
	course := testutil.SeedCourse(t, ctx, tx, coach.ID)
	keep := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 1)
	drop := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 2)

	affected, err := repo.RetireByIDs(ctx, tx, []uuid.UUID{drop.ID})
	if err != nil {
		t.Fatalf("RetireByIDs: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	got, err := repo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{course.ID})
	if err != nil {
		t.Fatalf("GetActiveByCourseIDs: %v", err)
	}
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("expected only %s to survive, got %+v", keep.ID, got)
	}
}

func TestCurriculumOutlineRepoRetireByCourseIDs(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewCurriculumOutlineRepo(gdb, testutil.Logger(t))

	coach := testutil.SeedCoach(t, ctx, tx, "outline-cascade@example.com")
	course := testutil.SeedCourse(t, ctx, tx, coach.ID)
	testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 1)
	testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 2)
	testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 3)

	affected, err := repo.RetireByCourseIDs(ctx, tx, []uuid.UUID{course.ID})
	if err != nil {
		t.Fatalf("RetireByCourseIDs: %v", err)
	}
	if affected != 3 {
		t.Fatalf("expected 3 affected rows, got %d", affected)
	}

	got, err := repo.GetActiveByCourseIDs(ctx, tx, []uuid.UUID{course.ID})
	if err != nil {
		t.Fatalf("GetActiveByCourseIDs: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no active outlines, got %d", len(got))
	}
}

func TestCurriculumOutlineRepoUpdateFields(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewCurriculumOutlineRepo(gdb, testutil.Logger(t))

	coach := testutil.SeedCoach(t, ctx, tx, "outline-update@example.com")
	course := testutil.SeedCourse(t, ctx, tx, coach.ID)
	outline := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 1)

	affected, err := repo.UpdateFields(ctx, tx, outline.ID, map[string]interface{}{
		"title":       "week one",
		"sequence_no": 5,
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	got, err := repo.GetActiveByIDs(ctx, tx, []uuid.UUID{outline.ID})
	if err != nil {
		t.Fatalf("GetActiveByIDs: %v", err)
	}
	if len(got) != 1 || got[0].Title != "week one" || got[0].SequenceNo != 5 {
		t.Fatalf("update did not stick: %+v", got)
	}
}

func TestCurriculumOutlineRepoLockActiveByID(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := NewCurriculumOutlineRepo(gdb, testutil.Logger(t))

	coach := testutil.SeedCoach(t, ctx, tx, "outline-lock@example.com")
	course := testutil.SeedCourse(t, ctx, tx, coach.ID)
	outline := testutil.SeedCurriculumOutline(t, ctx, tx, course.ID, 1)

	locked, err := repo.LockActiveByID(ctx, tx, outline.ID)
	if err != nil {
		t.Fatalf("LockActiveByID: %v", err)
	}
	if locked == nil || locked.ID != outline.ID {
		t.Fatalf("expected locked outline %s, got %+v", outline.ID, locked)
	}

	if _, err := repo.RetireByIDs(ctx, tx, []uuid.UUID{outline.ID}); err != nil {
		t.Fatalf("RetireByIDs: %v", err)
	}
	gone, err := repo.LockActiveByID(ctx, tx, outline.ID)
	if err != nil {
		t.Fatalf("LockActiveByID retired: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil for retired outline, got %+v", gone)
	}
}
