package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/services"
	"github.com/aloratech/coachcraft-backend/internal/types"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(baseLog *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         baseLog.With("handler", "AuthHandler"),
		authService: authService,
	}
}

type registerPayload struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var payload registerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_payload", err.Error())
		return
	}
	coach := &types.Coach{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}
	if err := h.authService.RegisterCoach(c.Request.Context(), coach); err != nil {
		h.log.Warn("Register failed", "email", payload.Email, "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": coach.ID, "email": coach.Email})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_payload", err.Error())
		return
	}
	token, err := h.authService.LoginCoach(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(h.authService.GetAccessTTL().Seconds()),
	})
}
