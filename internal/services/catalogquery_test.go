package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

func TestListCoursesByCoachPaginates(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "paginate@example.com")

	for i := 0; i < 5; i++ {
		_, err := fx.authoring.CreateCourse(ctx, CreateCourseInput{
			Name:       fmt.Sprintf("Course %d", i),
			IntroVideo: IntroVideoInput{Title: "Welcome", VideoURL: "https://videos.example.com/w"},
			Nodes:      []CurriculumNodeInput{{HeaderType: types.HeaderTypeChapter, SequenceNo: 1, Title: "Chapter"}},
		})
		if err != nil {
			t.Fatalf("CreateCourse %d: %v", i, err)
		}
	}

	page, err := fx.catalog.ListCoursesByCoach(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListCoursesByCoach: %v", err)
	}
	if page.Total != 5 {
		t.Fatalf("expected total 5, got %d", page.Total)
	}
	if len(page.Courses) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page.Courses))
	}

	rest, err := fx.catalog.ListCoursesByCoach(ctx, 10, 2)
	if err != nil {
		t.Fatalf("ListCoursesByCoach offset: %v", err)
	}
	if len(rest.Courses) != 3 {
		t.Fatalf("expected remaining 3 courses, got %d", len(rest.Courses))
	}
}

func TestListCoursesRequiresAuth(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.catalog.ListCoursesByCoach(context.Background(), 10, 0); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGetCourseAggregateExcludesRetiredNodes(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "agg-retired@example.com")
	agg := seedFullCourse(t, fx, ctx)

	if _, err := fx.lifecycle.DeleteCurriculumNode(ctx, agg.Nodes[2].Outline.ID); err != nil {
		t.Fatalf("DeleteCurriculumNode: %v", err)
	}

	got, err := fx.catalog.GetCourseAggregate(ctx, agg.Course.ID)
	if err != nil {
		t.Fatalf("GetCourseAggregate: %v", err)
	}
	if len(got.Nodes) != 2 {
		t.Fatalf("expected 2 nodes after retire, got %d", len(got.Nodes))
	}
	// Ordering by sequence number survives partial deletes.
	if got.Nodes[0].Outline.SequenceNo > got.Nodes[1].Outline.SequenceNo {
		t.Fatalf("nodes out of order: %d before %d", got.Nodes[0].Outline.SequenceNo, got.Nodes[1].Outline.SequenceNo)
	}
}
