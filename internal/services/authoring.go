package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/blob"
	"github.com/aloratech/coachcraft-backend/internal/clients/redis"
	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/repos"
	"github.com/aloratech/coachcraft-backend/internal/requestdata"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

const maxParallelStages = 4

// ThumbnailUpload is a raw image received from the client, not yet staged
// into the blob store.
type ThumbnailUpload struct {
	BaseName    string
	ContentType string
	Data        []byte
}

type IntroVideoInput struct {
	Domain      string
	Subdomain   string
	Title       string
	Description string
	VideoURL    string
	Thumbnail   *ThumbnailUpload
}

type CurriculumNodeInput struct {
	HeaderType  string
	SequenceNo  int
	Title       string
	Description string
	VideoURL    string
	Thumbnail   *ThumbnailUpload
}

type CreateCourseInput struct {
	Name                  string
	TargetAudience        string
	LearningOutcomes      string
	CurriculumDescription string
	Duration              string
	Metadata              datatypes.JSON
	IntroVideo            IntroVideoInput
	Nodes                 []CurriculumNodeInput
}

// UpdateCourseInput carries partial updates: nil pointers leave the column
// untouched. A non-nil IntroThumbnail replaces the current thumbnail blob.
type UpdateCourseInput struct {
	Name                  *string
	TargetAudience        *string
	LearningOutcomes      *string
	CurriculumDescription *string
	Duration              *string
	Metadata              datatypes.JSON

	IntroDomain      *string
	IntroSubdomain   *string
	IntroTitle       *string
	IntroDescription *string
	IntroVideoURL    *string
	IntroThumbnail   *ThumbnailUpload
}

type UpdateCurriculumNodeInput struct {
	HeaderType  *string
	SequenceNo  *int
	Title       *string
	Description *string

	VideoURL  *string
	Thumbnail *ThumbnailUpload
}

// AuthoringService coordinates every write that touches both stores. The
// ordering discipline is fixed: stage new blobs first, then run a single DB
// transaction, and only after commit reclaim the blobs the transaction
// replaced. Staged blobs are tracked in a ledger so a failure at any point
// before commit deletes everything staged so far.
type AuthoringService interface {
	CreateCourse(ctx context.Context, in CreateCourseInput) (*types.CourseAggregate, error)
	UpdateCourse(ctx context.Context, courseID uuid.UUID, in UpdateCourseInput) (*types.CourseAggregate, error)
	CreateCurriculumNode(ctx context.Context, courseID uuid.UUID, in CurriculumNodeInput) (*types.CurriculumNode, error)
	UpdateCurriculumNode(ctx context.Context, outlineID uuid.UUID, in UpdateCurriculumNodeInput) (*types.CurriculumNode, error)
}

type authoringService struct {
	db          *gorm.DB
	log         *logger.Logger
	blobs       blob.Store
	cache       *redis.CourseCache
	courseRepo  repos.CourseRepo
	introRepo   repos.IntroVideoRepo
	outlineRepo repos.CurriculumOutlineRepo
	videoRepo   repos.CurriculumVideoRepo
}

func NewAuthoringService(
	db *gorm.DB,
	baseLog *logger.Logger,
	blobs blob.Store,
	cache *redis.CourseCache,
	courseRepo repos.CourseRepo,
	introRepo repos.IntroVideoRepo,
	outlineRepo repos.CurriculumOutlineRepo,
	videoRepo repos.CurriculumVideoRepo,
) AuthoringService {
	return &authoringService{
		db:          db,
		log:         baseLog.With("service", "AuthoringService"),
		blobs:       blobs,
		cache:       cache,
		courseRepo:  courseRepo,
		introRepo:   introRepo,
		outlineRepo: outlineRepo,
		videoRepo:   videoRepo,
	}
}

// stagedBlobLedger records every blob written during one workflow so a
// failure can delete exactly what this workflow created and nothing else.
type stagedBlobLedger struct {
	mu    sync.Mutex
	paths []string
}

func (l *stagedBlobLedger) record(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
}

func (l *stagedBlobLedger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.paths))
	copy(out, l.paths)
	return out
}

// cleanup deletes everything the ledger recorded. Called only on failure
// paths, before the error is returned.
func (s *authoringService) cleanup(ctx context.Context, ledger *stagedBlobLedger) {
	paths := ledger.all()
	if len(paths) == 0 {
		return
	}
	if ok := s.blobs.DeleteAll(ctx, paths); !ok {
		s.log.Warn("staged blob cleanup left orphans", "paths", paths)
	}
}

// reclaim deletes blobs a committed transaction replaced. Failures are
// logged as a reclaim warning and never surface to the caller: the DB has
// already committed and the orphaned blob is unreferenced.
func (s *authoringService) reclaim(ctx context.Context, paths []string) {
	live := paths[:0]
	for _, p := range paths {
		if p != "" {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return
	}
	if ok := s.blobs.DeleteAll(ctx, live); !ok {
		s.log.Warn("blob reclaim warning: replaced blobs left behind", "paths", live)
	}
}

func (s *authoringService) stageThumbnail(ctx context.Context, folder string, up *ThumbnailUpload, ledger *stagedBlobLedger) (string, error) {
	if up == nil {
		return "", nil
	}
	path, err := s.blobs.Put(ctx, folder, up.BaseName, up.ContentType, up.Data)
	if err != nil {
		return "", err
	}
	ledger.record(path)
	return path, nil
}

func validateNodes(nodes []CurriculumNodeInput) error {
	seen := make(map[int]bool, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if !types.ValidHeaderType(n.HeaderType) {
			return fmt.Errorf("%w: node %d has invalid header type %q", apperr.ErrInvalidArgument, i, n.HeaderType)
		}
		if n.Title == "" {
			return fmt.Errorf("%w: node %d missing title", apperr.ErrInvalidArgument, i)
		}
		if seen[n.SequenceNo] {
			return fmt.Errorf("%w: duplicate sequence number %d", apperr.ErrInvalidArgument, n.SequenceNo)
		}
		seen[n.SequenceNo] = true
	}
	return nil
}

func (s *authoringService) CreateCourse(ctx context.Context, in CreateCourseInput) (*types.CourseAggregate, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: course name required", apperr.ErrInvalidArgument)
	}
	if in.IntroVideo.Title == "" || in.IntroVideo.VideoURL == "" {
		return nil, fmt.Errorf("%w: intro video title and url required", apperr.ErrInvalidArgument)
	}
	if err := validateNodes(in.Nodes); err != nil {
		return nil, err
	}

	ledger := &stagedBlobLedger{}

	// Phase 1: stage every thumbnail before the first DB write. Node
	// thumbnails stage in parallel; the ledger absorbs whatever landed
	// before the first failure.
	var introThumbPath string
	nodeThumbPaths := make([]string, len(in.Nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelStages)
	g.Go(func() error {
		p, err := s.stageThumbnail(gctx, blob.FolderIntroThumbnails, in.IntroVideo.Thumbnail, ledger)
		if err != nil {
			return err
		}
		introThumbPath = p
		return nil
	})
	for i := range in.Nodes {
		i := i
		g.Go(func() error {
			p, err := s.stageThumbnail(gctx, blob.FolderCurriculumThumbnails, in.Nodes[i].Thumbnail, ledger)
			if err != nil {
				return err
			}
			nodeThumbPaths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cleanup(ctx, ledger)
		s.log.Error("CreateCourse staging failed", "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentCreationFailed, err)
	}

	// Phase 2: one transaction for the whole tree.
	now := time.Now().UTC()
	course := &types.Course{
		ID:                    uuid.New(),
		CoachID:               rd.CoachID,
		Name:                  in.Name,
		TargetAudience:        in.TargetAudience,
		LearningOutcomes:      in.LearningOutcomes,
		CurriculumDescription: in.CurriculumDescription,
		Duration:              in.Duration,
		Metadata:              in.Metadata,
		CreatedOn:             now,
		Status:                types.StatusActive,
	}
	intro := &types.IntroVideo{
		ID:            uuid.New(),
		CourseID:      course.ID,
		CoachID:       rd.CoachID,
		Domain:        in.IntroVideo.Domain,
		Subdomain:     in.IntroVideo.Subdomain,
		Title:         in.IntroVideo.Title,
		Description:   in.IntroVideo.Description,
		VideoURL:      in.IntroVideo.VideoURL,
		ThumbnailPath: introThumbPath,
		CreatedOn:     now,
		Status:        types.StatusActive,
	}

	nodes := make([]*types.CurriculumNode, 0, len(in.Nodes))
	outlines := make([]*types.CurriculumOutline, 0, len(in.Nodes))
	videos := make([]*types.CurriculumVideo, 0, len(in.Nodes))
	for i := range in.Nodes {
		n := &in.Nodes[i]
		outline := &types.CurriculumOutline{
			ID:          uuid.New(),
			CourseID:    course.ID,
			HeaderType:  n.HeaderType,
			SequenceNo:  n.SequenceNo,
			Title:       n.Title,
			Description: n.Description,
			CreatedOn:   now,
			Status:      types.StatusActive,
		}
		outlines = append(outlines, outline)
		node := &types.CurriculumNode{Outline: outline}
		// A video row exists only when the node actually carries media.
		if n.VideoURL != "" || nodeThumbPaths[i] != "" {
			video := &types.CurriculumVideo{
				ID:                  uuid.New(),
				CourseID:            course.ID,
				CurriculumOutlineID: outline.ID,
				VideoURL:            n.VideoURL,
				ThumbnailPath:       nodeThumbPaths[i],
				CreatedOn:           now,
				Status:              types.StatusActive,
			}
			videos = append(videos, video)
			node.Video = video
		}
		nodes = append(nodes, node)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.courseRepo.Create(ctx, tx, []*types.Course{course}); err != nil {
			return apperr.Storage("create course", err)
		}
		if _, err := s.introRepo.Create(ctx, tx, []*types.IntroVideo{intro}); err != nil {
			return apperr.Storage("create intro video", err)
		}
		if _, err := s.outlineRepo.Create(ctx, tx, outlines); err != nil {
			return apperr.Storage("create curriculum outlines", err)
		}
		if _, err := s.videoRepo.Create(ctx, tx, videos); err != nil {
			return apperr.Storage("create curriculum videos", err)
		}
		return nil
	})
	if err != nil {
		s.cleanup(ctx, ledger)
		s.log.Error("CreateCourse transaction failed", "course_id", course.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentCreationFailed, err)
	}

	s.log.Info("course created", "course_id", course.ID, "coach_id", rd.CoachID, "nodes", len(nodes))
	return &types.CourseAggregate{Course: course, IntroVideo: intro, Nodes: nodes}, nil
}

func (s *authoringService) UpdateCourse(ctx context.Context, courseID uuid.UUID, in UpdateCourseInput) (*types.CourseAggregate, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}

	ledger := &stagedBlobLedger{}
	newThumbPath, err := s.stageThumbnail(ctx, blob.FolderIntroThumbnails, in.IntroThumbnail, ledger)
	if err != nil {
		s.log.Error("UpdateCourse staging failed", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentUpdateFailed, err)
	}

	courseFields := map[string]interface{}{}
	if in.Name != nil {
		courseFields["name"] = *in.Name
	}
	if in.TargetAudience != nil {
		courseFields["target_audience"] = *in.TargetAudience
	}
	if in.LearningOutcomes != nil {
		courseFields["learning_outcomes"] = *in.LearningOutcomes
	}
	if in.CurriculumDescription != nil {
		courseFields["curriculum_description"] = *in.CurriculumDescription
	}
	if in.Duration != nil {
		courseFields["duration"] = *in.Duration
	}
	if in.Metadata != nil {
		courseFields["metadata"] = in.Metadata
	}

	introFields := map[string]interface{}{}
	if in.IntroDomain != nil {
		introFields["domain"] = *in.IntroDomain
	}
	if in.IntroSubdomain != nil {
		introFields["subdomain"] = *in.IntroSubdomain
	}
	if in.IntroTitle != nil {
		introFields["title"] = *in.IntroTitle
	}
	if in.IntroDescription != nil {
		introFields["description"] = *in.IntroDescription
	}
	if in.IntroVideoURL != nil {
		introFields["video_url"] = *in.IntroVideoURL
	}
	if newThumbPath != "" {
		introFields["thumbnail_path"] = newThumbPath
	}

	var oldThumbPath string
	var agg *types.CourseAggregate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.LockActiveByID(ctx, tx, courseID)
		if err != nil {
			return apperr.Storage("lock course", err)
		}
		if course == nil {
			return apperr.ErrRowNotFound
		}
		if course.CoachID != rd.CoachID {
			return apperr.ErrUnauthorized
		}

		intro, err := s.introRepo.LockActiveByCourseID(ctx, tx, courseID)
		if err != nil {
			return apperr.Storage("lock intro video", err)
		}
		if intro == nil {
			return apperr.ErrRowNotFound
		}
		if newThumbPath != "" {
			oldThumbPath = intro.ThumbnailPath
		}

		if len(courseFields) > 0 {
			affected, err := s.courseRepo.UpdateFields(ctx, tx, courseID, courseFields)
			if err != nil {
				return apperr.Storage("update course", err)
			}
			if affected == 0 {
				return apperr.ErrRowNotFound
			}
		}
		if len(introFields) > 0 {
			affected, err := s.introRepo.UpdateFieldsByCourseID(ctx, tx, courseID, introFields)
			if err != nil {
				return apperr.Storage("update intro video", err)
			}
			if affected == 0 {
				return apperr.ErrRowNotFound
			}
		}

		agg, err = s.loadAggregate(ctx, tx, courseID)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.cleanup(ctx, ledger)
		if apperr.IsRowNotFound(err) {
			return nil, err
		}
		s.log.Error("UpdateCourse transaction failed", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentUpdateFailed, err)
	}

	// Commit happened; only now is the old thumbnail unreferenced.
	s.reclaim(ctx, []string{oldThumbPath})
	s.cache.Invalidate(ctx, courseID)

	return agg, nil
}

func (s *authoringService) CreateCurriculumNode(ctx context.Context, courseID uuid.UUID, in CurriculumNodeInput) (*types.CurriculumNode, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}
	if err := validateNodes([]CurriculumNodeInput{in}); err != nil {
		return nil, err
	}

	ledger := &stagedBlobLedger{}
	thumbPath, err := s.stageThumbnail(ctx, blob.FolderCurriculumThumbnails, in.Thumbnail, ledger)
	if err != nil {
		s.log.Error("CreateCurriculumNode staging failed", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentCreationFailed, err)
	}

	now := time.Now().UTC()
	outline := &types.CurriculumOutline{
		ID:          uuid.New(),
		CourseID:    courseID,
		HeaderType:  in.HeaderType,
		SequenceNo:  in.SequenceNo,
		Title:       in.Title,
		Description: in.Description,
		CreatedOn:   now,
		Status:      types.StatusActive,
	}
	node := &types.CurriculumNode{Outline: outline}
	if in.VideoURL != "" || thumbPath != "" {
		node.Video = &types.CurriculumVideo{
			ID:                  uuid.New(),
			CourseID:            courseID,
			CurriculumOutlineID: outline.ID,
			VideoURL:            in.VideoURL,
			ThumbnailPath:       thumbPath,
			CreatedOn:           now,
			Status:              types.StatusActive,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.LockActiveByID(ctx, tx, courseID)
		if err != nil {
			return apperr.Storage("lock course", err)
		}
		if course == nil {
			return apperr.ErrRowNotFound
		}
		if course.CoachID != rd.CoachID {
			return apperr.ErrUnauthorized
		}
		if _, err := s.outlineRepo.Create(ctx, tx, []*types.CurriculumOutline{outline}); err != nil {
			return apperr.Storage("create curriculum outline", err)
		}
		if node.Video != nil {
			if _, err := s.videoRepo.Create(ctx, tx, []*types.CurriculumVideo{node.Video}); err != nil {
				return apperr.Storage("create curriculum video", err)
			}
		}
		return nil
	})
	if err != nil {
		s.cleanup(ctx, ledger)
		if apperr.IsRowNotFound(err) {
			return nil, err
		}
		s.log.Error("CreateCurriculumNode transaction failed", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentCreationFailed, err)
	}

	s.cache.Invalidate(ctx, courseID)
	return node, nil
}

func (s *authoringService) UpdateCurriculumNode(ctx context.Context, outlineID uuid.UUID, in UpdateCurriculumNodeInput) (*types.CurriculumNode, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apperr.ErrUnauthorized
	}
	if in.HeaderType != nil && !types.ValidHeaderType(*in.HeaderType) {
		return nil, fmt.Errorf("%w: invalid header type %q", apperr.ErrInvalidArgument, *in.HeaderType)
	}

	ledger := &stagedBlobLedger{}
	newThumbPath, err := s.stageThumbnail(ctx, blob.FolderCurriculumThumbnails, in.Thumbnail, ledger)
	if err != nil {
		s.log.Error("UpdateCurriculumNode staging failed", "outline_id", outlineID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentUpdateFailed, err)
	}

	outlineFields := map[string]interface{}{}
	if in.HeaderType != nil {
		outlineFields["header_type"] = *in.HeaderType
	}
	if in.SequenceNo != nil {
		outlineFields["sequence_no"] = *in.SequenceNo
	}
	if in.Title != nil {
		outlineFields["title"] = *in.Title
	}
	if in.Description != nil {
		outlineFields["description"] = *in.Description
	}

	videoFields := map[string]interface{}{}
	if in.VideoURL != nil {
		videoFields["video_url"] = *in.VideoURL
	}
	if newThumbPath != "" {
		videoFields["thumbnail_path"] = newThumbPath
	}

	var oldThumbPath string
	var courseID uuid.UUID
	node := &types.CurriculumNode{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locks are taken course-first on every mutation path; this read
		// only discovers which course to lock.
		outlines, err := s.outlineRepo.GetActiveByIDs(ctx, tx, []uuid.UUID{outlineID})
		if err != nil {
			return apperr.Storage("load curriculum outline", err)
		}
		if len(outlines) == 0 {
			return apperr.ErrRowNotFound
		}
		courseID = outlines[0].CourseID

		course, err := s.courseRepo.LockActiveByID(ctx, tx, courseID)
		if err != nil {
			return apperr.Storage("lock course", err)
		}
		if course == nil {
			return apperr.ErrRowNotFound
		}
		if course.CoachID != rd.CoachID {
			return apperr.ErrUnauthorized
		}

		outline, err := s.outlineRepo.LockActiveByID(ctx, tx, outlineID)
		if err != nil {
			return apperr.Storage("lock curriculum outline", err)
		}
		if outline == nil {
			return apperr.ErrRowNotFound
		}

		if len(outlineFields) > 0 {
			affected, err := s.outlineRepo.UpdateFields(ctx, tx, outlineID, outlineFields)
			if err != nil {
				return apperr.Storage("update curriculum outline", err)
			}
			if affected == 0 {
				return apperr.ErrRowNotFound
			}
		}

		video, err := s.videoRepo.LockActiveByOutlineID(ctx, tx, outlineID)
		if err != nil {
			return apperr.Storage("lock curriculum video", err)
		}
		switch {
		case video != nil && len(videoFields) > 0:
			if newThumbPath != "" {
				oldThumbPath = video.ThumbnailPath
			}
			if _, err := s.videoRepo.UpdateFieldsByOutlineID(ctx, tx, outlineID, videoFields); err != nil {
				return apperr.Storage("update curriculum video", err)
			}
		case video == nil && len(videoFields) > 0:
			// First media attached to this node: create the row in place.
			created := &types.CurriculumVideo{
				ID:                  uuid.New(),
				CourseID:            outline.CourseID,
				CurriculumOutlineID: outlineID,
				ThumbnailPath:       newThumbPath,
				CreatedOn:           time.Now().UTC(),
				Status:              types.StatusActive,
			}
			if in.VideoURL != nil {
				created.VideoURL = *in.VideoURL
			}
			if _, err := s.videoRepo.Create(ctx, tx, []*types.CurriculumVideo{created}); err != nil {
				return apperr.Storage("create curriculum video", err)
			}
			video = created
		}

		refreshed, err := s.outlineRepo.GetActiveByIDs(ctx, tx, []uuid.UUID{outlineID})
		if err != nil {
			return apperr.Storage("reload curriculum outline", err)
		}
		if len(refreshed) == 0 {
			return apperr.ErrRowNotFound
		}
		node.Outline = refreshed[0]
		if video != nil {
			videos, err := s.videoRepo.GetActiveByOutlineIDs(ctx, tx, []uuid.UUID{outlineID})
			if err != nil {
				return apperr.Storage("reload curriculum video", err)
			}
			if len(videos) > 0 {
				node.Video = videos[0]
			}
		}
		return nil
	})
	if err != nil {
		s.cleanup(ctx, ledger)
		if apperr.IsRowNotFound(err) {
			return nil, err
		}
		s.log.Error("UpdateCurriculumNode transaction failed", "outline_id", outlineID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrContentUpdateFailed, err)
	}

	s.reclaim(ctx, []string{oldThumbPath})
	s.cache.Invalidate(ctx, courseID)
	return node, nil
}

// loadAggregate assembles the full course view inside the caller's
// transaction so it reflects exactly what that transaction committed.
func (s *authoringService) loadAggregate(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseAggregate, error) {
	return loadCourseAggregate(ctx, tx, s.courseRepo, s.introRepo, s.outlineRepo, s.videoRepo, courseID)
}
