package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/services"
)

// Thumbnails arrive as multipart file parts next to a "payload" JSON part.
const maxThumbnailBytes = 5 << 20

type CourseHandler struct {
	log       *logger.Logger
	authoring services.AuthoringService
	lifecycle services.LifecycleService
	catalog   services.CatalogQueryService
}

func NewCourseHandler(
	baseLog *logger.Logger,
	authoring services.AuthoringService,
	lifecycle services.LifecycleService,
	catalog services.CatalogQueryService,
) *CourseHandler {
	return &CourseHandler{
		log:       baseLog.With("handler", "CourseHandler"),
		authoring: authoring,
		lifecycle: lifecycle,
		catalog:   catalog,
	}
}

type introVideoPayload struct {
	Domain      string `json:"domain"`
	Subdomain   string `json:"subdomain"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
}

type curriculumNodePayload struct {
	HeaderType  string `json:"header_type"`
	SequenceNo  int    `json:"sequence_no"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
}

type createCoursePayload struct {
	Name                  string                  `json:"name"`
	TargetAudience        string                  `json:"target_audience"`
	LearningOutcomes      string                  `json:"learning_outcomes"`
	CurriculumDescription string                  `json:"curriculum_description"`
	Duration              string                  `json:"duration"`
	Metadata              json.RawMessage         `json:"metadata"`
	IntroVideo            introVideoPayload       `json:"intro_video"`
	Nodes                 []curriculumNodePayload `json:"nodes"`
}

type updateCoursePayload struct {
	Name                  *string         `json:"name"`
	TargetAudience        *string         `json:"target_audience"`
	LearningOutcomes      *string         `json:"learning_outcomes"`
	CurriculumDescription *string         `json:"curriculum_description"`
	Duration              *string         `json:"duration"`
	Metadata              json.RawMessage `json:"metadata"`

	IntroDomain      *string `json:"intro_domain"`
	IntroSubdomain   *string `json:"intro_subdomain"`
	IntroTitle       *string `json:"intro_title"`
	IntroDescription *string `json:"intro_description"`
	IntroVideoURL    *string `json:"intro_video_url"`
}

// decodePayload reads the "payload" multipart field (or, for requests
// without files, the raw JSON body) into dst.
func decodePayload(c *gin.Context, dst any) error {
	if v := c.PostForm("payload"); v != "" {
		return json.Unmarshal([]byte(v), dst)
	}
	return c.ShouldBindJSON(dst)
}

// readThumbnail pulls one optional file part out of the multipart form.
func readThumbnail(c *gin.Context, field string) (*services.ThumbnailUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if fh.Size > maxThumbnailBytes {
		return nil, fmt.Errorf("thumbnail %q exceeds %d bytes", field, int64(maxThumbnailBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxThumbnailBytes+1))
	if err != nil {
		return nil, err
	}
	return &services.ThumbnailUpload{
		BaseName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var payload createCoursePayload
	if err := decodePayload(c, &payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_payload", err.Error())
		return
	}

	in := services.CreateCourseInput{
		Name:                  payload.Name,
		TargetAudience:        payload.TargetAudience,
		LearningOutcomes:      payload.LearningOutcomes,
		CurriculumDescription: payload.CurriculumDescription,
		Duration:              payload.Duration,
		Metadata:              datatypes.JSON(payload.Metadata),
		IntroVideo: services.IntroVideoInput{
			Domain:      payload.IntroVideo.Domain,
			Subdomain:   payload.IntroVideo.Subdomain,
			Title:       payload.IntroVideo.Title,
			Description: payload.IntroVideo.Description,
			VideoURL:    payload.IntroVideo.VideoURL,
		},
	}

	introThumb, err := readThumbnail(c, "intro_thumbnail")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_thumbnail", err.Error())
		return
	}
	in.IntroVideo.Thumbnail = introThumb

	for i, n := range payload.Nodes {
		nodeThumb, err := readThumbnail(c, "curriculum_thumbnail_"+strconv.Itoa(i))
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_thumbnail", err.Error())
			return
		}
		in.Nodes = append(in.Nodes, services.CurriculumNodeInput{
			HeaderType:  n.HeaderType,
			SequenceNo:  n.SequenceNo,
			Title:       n.Title,
			Description: n.Description,
			VideoURL:    n.VideoURL,
			Thumbnail:   nodeThumb,
		})
	}

	agg, err := h.authoring.CreateCourse(c.Request.Context(), in)
	if err != nil {
		h.log.Error("CreateCourse failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agg)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_course_id", err.Error())
		return
	}

	var payload updateCoursePayload
	if err := decodePayload(c, &payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_payload", err.Error())
		return
	}
	introThumb, err := readThumbnail(c, "intro_thumbnail")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_thumbnail", err.Error())
		return
	}

	agg, err := h.authoring.UpdateCourse(c.Request.Context(), courseID, services.UpdateCourseInput{
		Name:                  payload.Name,
		TargetAudience:        payload.TargetAudience,
		LearningOutcomes:      payload.LearningOutcomes,
		CurriculumDescription: payload.CurriculumDescription,
		Duration:              payload.Duration,
		Metadata:              datatypes.JSON(payload.Metadata),
		IntroDomain:           payload.IntroDomain,
		IntroSubdomain:        payload.IntroSubdomain,
		IntroTitle:            payload.IntroTitle,
		IntroDescription:      payload.IntroDescription,
		IntroVideoURL:         payload.IntroVideoURL,
		IntroThumbnail:        introThumb,
	})
	if err != nil {
		h.log.Error("UpdateCourse failed", "course_id", courseID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agg)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_course_id", err.Error())
		return
	}
	agg, err := h.catalog.GetCourseAggregate(c.Request.Context(), courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agg)
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	listing, err := h.catalog.ListCoursesByCoach(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, listing)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_course_id", err.Error())
		return
	}
	result, err := h.lifecycle.DeleteCourse(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("DeleteCourse failed", "course_id", courseID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
