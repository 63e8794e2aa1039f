package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/services"
)

type CurriculumHandler struct {
	log       *logger.Logger
	authoring services.AuthoringService
	lifecycle services.LifecycleService
}

func NewCurriculumHandler(
	baseLog *logger.Logger,
	authoring services.AuthoringService,
	lifecycle services.LifecycleService,
) *CurriculumHandler {
	return &CurriculumHandler{
		log:       baseLog.With("handler", "CurriculumHandler"),
		authoring: authoring,
		lifecycle: lifecycle,
	}
}

type updateCurriculumNodePayload struct {
	HeaderType  *string `json:"header_type"`
	SequenceNo  *int    `json:"sequence_no"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	VideoURL    *string `json:"video_url"`
}

func (h *CurriculumHandler) CreateNode(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_course_id", err.Error())
		return
	}

	var payload curriculumNodePayload
	if err := decodePayload(c, &payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_payload", err.Error())
		return
	}
	thumb, err := readThumbnail(c, "curriculum_thumbnail")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_thumbnail", err.Error())
		return
	}

	node, err := h.authoring.CreateCurriculumNode(c.Request.Context(), courseID, services.CurriculumNodeInput{
		HeaderType:  payload.HeaderType,
		SequenceNo:  payload.SequenceNo,
		Title:       payload.Title,
		Description: payload.Description,
		VideoURL:    payload.VideoURL,
		Thumbnail:   thumb,
	})
	if err != nil {
		h.log.Error("CreateNode failed", "course_id", courseID, "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (h *CurriculumHandler) UpdateNode(c *gin.Context) {
	outlineID, err := uuid.Parse(c.Param("outlineID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_outline_id", err.Error())
		return
	}

	var payload updateCurriculumNodePayload
	if err := decodePayload(c, &payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_payload", err.Error())
		return
	}
	thumb, err := readThumbnail(c, "curriculum_thumbnail")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_thumbnail", err.Error())
		return
	}

	node, err := h.authoring.UpdateCurriculumNode(c.Request.Context(), outlineID, services.UpdateCurriculumNodeInput{
		HeaderType:  payload.HeaderType,
		SequenceNo:  payload.SequenceNo,
		Title:       payload.Title,
		Description: payload.Description,
		VideoURL:    payload.VideoURL,
		Thumbnail:   thumb,
	})
	if err != nil {
		h.log.Error("UpdateNode failed", "outline_id", outlineID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, node)
}

func (h *CurriculumHandler) DeleteNode(c *gin.Context) {
	outlineID, err := uuid.Parse(c.Param("outlineID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_outline_id", err.Error())
		return
	}
	result, err := h.lifecycle.DeleteCurriculumNode(c.Request.Context(), outlineID)
	if err != nil {
		h.log.Error("DeleteNode failed", "outline_id", outlineID, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
