package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code, message string) {
	if message == "" {
		message = "unknown error"
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
// A missing or retired row is a 404, never a 5xx; workflow failures are 500.
// Bodies carry fixed messages: the wrapped chain under a workflow failure
// holds driver and filesystem detail, and that stays in the server logs.
// Validation errors are the exception, their reason is the caller's own input.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case apperr.IsRowNotFound(err):
		RespondError(c, http.StatusNotFound, "not_found", "requested content does not exist or is retired")
	case errors.Is(err, apperr.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", "not authorized for this content")
	case errors.Is(err, apperr.ErrContentCreationFailed):
		RespondError(c, http.StatusInternalServerError, "content_creation_failed", "content creation failed")
	case errors.Is(err, apperr.ErrContentUpdateFailed):
		RespondError(c, http.StatusInternalServerError, "content_update_failed", "content update failed")
	case errors.Is(err, apperr.ErrContentDeletionFailed):
		RespondError(c, http.StatusInternalServerError, "content_deletion_failed", "content deletion failed")
	default:
		RespondError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
