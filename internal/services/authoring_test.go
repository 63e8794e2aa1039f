package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/blob"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/repos/testutil"
	"github.com/aloratech/coachcraft-backend/internal/requestdata"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type fixture struct {
	db        *gorm.DB
	blobs     blob.Store
	authoring AuthoringService
	lifecycle LifecycleService
	catalog   CatalogQueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	store, err := blob.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return newFixtureWithStore(t, gdb, store)
}

func newFixtureWithStore(t *testing.T, gdb *gorm.DB, store blob.Store) *fixture {
	t.Helper()
	log := testutil.Logger(t)

	courseRepo := repos.NewCourseRepo(gdb, log)
	introRepo := repos.NewIntroVideoRepo(gdb, log)
	outlineRepo := repos.NewCurriculumOutlineRepo(gdb, log)
	videoRepo := repos.NewCurriculumVideoRepo(gdb, log)

	return &fixture{
		db:        gdb,
		blobs:     store,
		authoring: NewAuthoringService(gdb, log, store, nil, courseRepo, introRepo, outlineRepo, videoRepo),
		lifecycle: NewLifecycleService(gdb, log, store, nil, courseRepo, introRepo, outlineRepo, videoRepo),
		catalog:   NewCatalogQueryService(gdb, log, nil, courseRepo, introRepo, outlineRepo, videoRepo),
	}
}

func coachContext(t *testing.T, gdb *gorm.DB, email string) (context.Context, *types.Coach) {
	t.Helper()
	ctx := context.Background()
	coach := testutil.SeedCoach(t, ctx, gdb, email)
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		CoachID: coach.ID,
		Email:   coach.Email,
	}), coach
}

func thumb(name string) *ThumbnailUpload {
	return &ThumbnailUpload{
		BaseName:    name,
		ContentType: "image/png",
		Data:        []byte("png-bytes-" + name),
	}
}

func TestCreateCourseFullTree(t *testing.T) {
	fx := newFixture(t)
	ctx, coach := coachContext(t, fx.db, "create-full@example.com")

	agg, err := fx.authoring.CreateCourse(ctx, CreateCourseInput{
		Name:           "Yoga Foundations",
		TargetAudience: "beginners",
		Duration:       "6 weeks",
		IntroVideo: IntroVideoInput{
			Title:     "Welcome",
			VideoURL:  "https://videos.example.com/welcome",
			Thumbnail: thumb("welcome"),
		},
		Nodes: []CurriculumNodeInput{
			{HeaderType: types.HeaderTypeChapter, SequenceNo: 1, Title: "Basics"},
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 2, Title: "First Pose", VideoURL: "https://videos.example.com/pose", Thumbnail: thumb("pose")},
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 3, Title: "Breathing", Thumbnail: thumb("breath")},
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if agg.Course.CoachID != coach.ID {
		t.Fatalf("course owned by %s, expected %s", agg.Course.CoachID, coach.ID)
	}
	if agg.IntroVideo == nil || agg.IntroVideo.ThumbnailPath == "" {
		t.Fatalf("expected intro video with staged thumbnail, got %+v", agg.IntroVideo)
	}
	if len(agg.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(agg.Nodes))
	}
	if agg.Nodes[0].Video != nil {
		t.Fatalf("node without media should have no video row")
	}
	if agg.Nodes[1].Video == nil || agg.Nodes[2].Video == nil {
		t.Fatalf("nodes with media should have video rows")
	}

	for _, p := range []string{agg.IntroVideo.ThumbnailPath, agg.Nodes[1].Video.ThumbnailPath, agg.Nodes[2].Video.ThumbnailPath} {
		ok, err := fx.blobs.Exists(ctx, p)
		if err != nil || !ok {
			t.Fatalf("expected blob %q to exist (ok=%v err=%v)", p, ok, err)
		}
	}

	// Read side sees the same tree.
	got, err := fx.catalog.GetCourseAggregate(ctx, agg.Course.ID)
	if err != nil {
		t.Fatalf("GetCourseAggregate: %v", err)
	}
	if got.Course.ID != agg.Course.ID || len(got.Nodes) != 3 {
		t.Fatalf("aggregate mismatch: %+v", got)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "create-invalid@example.com")

	_, err := fx.authoring.CreateCourse(ctx, CreateCourseInput{
		Name:       "Broken",
		IntroVideo: IntroVideoInput{Title: "Welcome", VideoURL: "https://videos.example.com/w"},
		Nodes: []CurriculumNodeInput{
			{HeaderType: "volume", SequenceNo: 1, Title: "Bad"},
		},
	})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	_, err = fx.authoring.CreateCourse(context.Background(), CreateCourseInput{Name: "NoAuth"})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without request data, got %v", err)
	}
}

// faultyStore wraps a real store and fails Put once a quota of successful
// writes is spent, which simulates a blob backend dying mid-staging.
type faultyStore struct {
	inner     blob.Store
	mu        sync.Mutex
	remaining int
	staged    []string
}

func (f *faultyStore) Put(ctx context.Context, folder, baseName, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	if f.remaining <= 0 {
		f.mu.Unlock()
		return "", &apperr.BlobWriteFault{Path: folder + "/" + baseName, Err: errors.New("backend unavailable")}
	}
	f.remaining--
	f.mu.Unlock()

	path, err := f.inner.Put(ctx, folder, baseName, contentType, data)
	if err == nil {
		f.mu.Lock()
		f.staged = append(f.staged, path)
		f.mu.Unlock()
	}
	return path, err
}

func (f *faultyStore) DeleteAll(ctx context.Context, paths []string) bool {
	return f.inner.DeleteAll(ctx, paths)
}

func (f *faultyStore) Exists(ctx context.Context, path string) (bool, error) {
	return f.inner.Exists(ctx, path)
}

func TestCreateCourseStagingFaultCleansLedger(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	local, err := blob.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	store := &faultyStore{inner: local, remaining: 2}
	fx := newFixtureWithStore(t, gdb, store)
	ctx, coach := coachContext(t, fx.db, "staging-fault@example.com")

	_, err = fx.authoring.CreateCourse(ctx, CreateCourseInput{
		Name: "Doomed",
		IntroVideo: IntroVideoInput{
			Title:     "Welcome",
			VideoURL:  "https://videos.example.com/welcome",
			Thumbnail: thumb("welcome"),
		},
		Nodes: []CurriculumNodeInput{
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 1, Title: "A", Thumbnail: thumb("a")},
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 2, Title: "B", Thumbnail: thumb("b")},
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 3, Title: "C", Thumbnail: thumb("c")},
		},
	})
	if !errors.Is(err, apperr.ErrContentCreationFailed) {
		t.Fatalf("expected content creation failure, got %v", err)
	}
	var bwf *apperr.BlobWriteFault
	if !errors.As(err, &bwf) {
		t.Fatalf("expected a blob write fault in the chain, got %v", err)
	}

	// No DB rows were written.
	courseRepo := repos.NewCourseRepo(gdb, log)
	total, err := courseRepo.CountActiveByCoachID(ctx, nil, coach.ID)
	if err != nil {
		t.Fatalf("CountActiveByCoachID: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no courses after staging fault, got %d", total)
	}

	// Everything that made it into the store before the fault is gone.
	for _, p := range store.staged {
		ok, err := store.Exists(ctx, p)
		if err != nil {
			t.Fatalf("Exists(%q): %v", p, err)
		}
		if ok {
			t.Fatalf("staged blob %q survived ledger cleanup", p)
		}
	}
}

func TestCreateCurriculumNodeOnMissingCourseCleansStagedBlob(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "node-missing-course@example.com")

	up := thumb("orphan")
	_, err := fx.authoring.CreateCurriculumNode(ctx, uuid.New(), CurriculumNodeInput{
		HeaderType: types.HeaderTypeLesson,
		SequenceNo: 1,
		Title:      "Orphan",
		Thumbnail:  up,
	})
	if !errors.Is(err, apperr.ErrRowNotFound) {
		t.Fatalf("expected row not found, got %v", err)
	}
	if errors.Is(err, apperr.ErrContentCreationFailed) {
		t.Fatalf("row not found must not be reported as a workflow failure: %v", err)
	}
}

func TestUpdateCourseReplacesThumbnailAndReclaims(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "update-thumb@example.com")

	agg, err := fx.authoring.CreateCourse(ctx, CreateCourseInput{
		Name: "Original",
		IntroVideo: IntroVideoInput{
			Title:     "Welcome",
			VideoURL:  "https://videos.example.com/welcome",
			Thumbnail: thumb("old"),
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	oldPath := agg.IntroVideo.ThumbnailPath

	newName := "Renamed"
	updated, err := fx.authoring.UpdateCourse(ctx, agg.Course.ID, UpdateCourseInput{
		Name:           &newName,
		IntroThumbnail: thumb("new"),
	})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}
	if updated.Course.Name != "Renamed" {
		t.Fatalf("course name not updated: %q", updated.Course.Name)
	}
	if updated.IntroVideo.ThumbnailPath == oldPath || updated.IntroVideo.ThumbnailPath == "" {
		t.Fatalf("expected replaced thumbnail path, got %q", updated.IntroVideo.ThumbnailPath)
	}

	// Old blob reclaimed only after commit; new one live.
	if ok, _ := fx.blobs.Exists(ctx, oldPath); ok {
		t.Fatalf("old thumbnail %q should be reclaimed", oldPath)
	}
	if ok, _ := fx.blobs.Exists(ctx, updated.IntroVideo.ThumbnailPath); !ok {
		t.Fatalf("new thumbnail %q should exist", updated.IntroVideo.ThumbnailPath)
	}
}

func TestUpdateCourseDBAbortCleansStagedThumbnail(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	local, err := blob.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	store := &faultyStore{inner: local, remaining: 100}
	fx := newFixtureWithStore(t, gdb, store)
	ctx, _ := coachContext(t, fx.db, "update-abort@example.com")

	// The course does not exist, so the transaction aborts after the new
	// thumbnail was already staged.
	_, err = fx.authoring.UpdateCourse(ctx, uuid.New(), UpdateCourseInput{
		IntroThumbnail: thumb("staged"),
	})
	if !errors.Is(err, apperr.ErrRowNotFound) {
		t.Fatalf("expected row not found, got %v", err)
	}

	if len(store.staged) != 1 {
		t.Fatalf("expected exactly one staged blob, got %v", store.staged)
	}
	for _, p := range store.staged {
		if ok, _ := store.Exists(ctx, p); ok {
			t.Fatalf("staged blob %q should be cleaned up after DB abort", p)
		}
	}
}

func TestUpdateCourseRowNotFound(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "update-missing@example.com")

	name := "Ghost"
	_, err := fx.authoring.UpdateCourse(ctx, uuid.New(), UpdateCourseInput{Name: &name})
	if !errors.Is(err, apperr.ErrRowNotFound) {
		t.Fatalf("expected row not found, got %v", err)
	}
	if errors.Is(err, apperr.ErrContentUpdateFailed) {
		t.Fatalf("row not found must stay distinct from update failure: %v", err)
	}
}

func TestUpdateCourseRejectsForeignCoach(t *testing.T) {
	fx := newFixture(t)
	ownerCtx, _ := coachContext(t, fx.db, "owner@example.com")

	agg, err := fx.authoring.CreateCourse(ownerCtx, CreateCourseInput{
		Name:       "Private",
		IntroVideo: IntroVideoInput{Title: "Welcome", VideoURL: "https://videos.example.com/w"},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	intruderCtx, _ := coachContext(t, fx.db, "intruder@example.com")
	name := "Hijacked"
	_, err = fx.authoring.UpdateCourse(intruderCtx, agg.Course.ID, UpdateCourseInput{Name: &name})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign coach, got %v", err)
	}
}

func TestUpdateCurriculumNodeAttachesVideo(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "node-attach@example.com")

	agg, err := fx.authoring.CreateCourse(ctx, CreateCourseInput{
		Name:       "Course",
		IntroVideo: IntroVideoInput{Title: "Welcome", VideoURL: "https://videos.example.com/w"},
		Nodes: []CurriculumNodeInput{
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 1, Title: "Bare"},
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	outlineID := agg.Nodes[0].Outline.ID

	videoURL := "https://videos.example.com/late"
	node, err := fx.authoring.UpdateCurriculumNode(ctx, outlineID, UpdateCurriculumNodeInput{
		VideoURL:  &videoURL,
		Thumbnail: thumb("late"),
	})
	if err != nil {
		t.Fatalf("UpdateCurriculumNode: %v", err)
	}
	if node.Video == nil {
		t.Fatalf("expected video row to be created on first media attach")
	}
	if node.Video.VideoURL != videoURL || node.Video.ThumbnailPath == "" {
		t.Fatalf("video row incomplete: %+v", node.Video)
	}
	if ok, _ := fx.blobs.Exists(ctx, node.Video.ThumbnailPath); !ok {
		t.Fatalf("attached thumbnail %q should exist", node.Video.ThumbnailPath)
	}
}

func TestUpdateCurriculumNodeReplacesThumbnail(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "node-replace@example.com")

	agg, err := fx.authoring.CreateCourse(ctx, CreateCourseInput{
		Name:       "Course",
		IntroVideo: IntroVideoInput{Title: "Welcome", VideoURL: "https://videos.example.com/w"},
		Nodes: []CurriculumNodeInput{
			{HeaderType: types.HeaderTypeLesson, SequenceNo: 1, Title: "Clip", VideoURL: "https://videos.example.com/clip", Thumbnail: thumb("old")},
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	outlineID := agg.Nodes[0].Outline.ID
	oldPath := agg.Nodes[0].Video.ThumbnailPath

	node, err := fx.authoring.UpdateCurriculumNode(ctx, outlineID, UpdateCurriculumNodeInput{
		Thumbnail: thumb("new"),
	})
	if err != nil {
		t.Fatalf("UpdateCurriculumNode: %v", err)
	}
	if node.Video.ThumbnailPath == oldPath {
		t.Fatalf("thumbnail path should change, still %q", oldPath)
	}
	if ok, _ := fx.blobs.Exists(ctx, oldPath); ok {
		t.Fatalf("old thumbnail %q should be reclaimed after commit", oldPath)
	}
	if ok, _ := fx.blobs.Exists(ctx, node.Video.ThumbnailPath); !ok {
		t.Fatalf("new thumbnail %q should exist", node.Video.ThumbnailPath)
	}
}

func TestUpdateCurriculumNodeOnRetiredCourse(t *testing.T) {
	fx := newFixture(t)
	ctx, _ := coachContext(t, fx.db, "node-update-retired-course@example.com")
	agg := seedFullCourse(t, fx, ctx)

	// Retire only the course row. The node update locks the course before
	// touching the outline, so the missing parent surfaces as not-found.
	res := fx.db.Model(&types.Course{}).Where("id = ?", agg.Course.ID).Update("status", types.StatusRetired)
	if res.Error != nil || res.RowsAffected != 1 {
		t.Fatalf("retire course row: affected=%d err=%v", res.RowsAffected, res.Error)
	}

	title := "Renamed"
	_, err := fx.authoring.UpdateCurriculumNode(ctx, agg.Nodes[0].Outline.ID, UpdateCurriculumNodeInput{
		Title: &title,
	})
	if !errors.Is(err, apperr.ErrRowNotFound) {
		t.Fatalf("expected row not found for node under retired course, got %v", err)
	}
}
