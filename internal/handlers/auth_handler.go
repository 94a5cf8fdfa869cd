package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/middleware"
	"vaultadmin/internal/models"
	"vaultadmin/internal/services"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	userService services.UserServicer
	recorder    services.AuditRecorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, recorder services.AuditRecorder) *AuthHandler {
	return &AuthHandler{userService: userService, recorder: recorder}
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse contains the issued access token and the user.
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates an operator and issues an access token
// @Summary     Log in
// @Description Authenticate with email and password, returns a JWT access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} LoginResponse "Token and user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		h.recorder.Log(services.Scope{}, services.ActionLoginFailed, "User", nil,
			c.ClientIP(), c.Request.UserAgent(), models.StatusFailed,
			map[string]any{"email": req.Email})
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	scope := services.Scope{UserID: user.ID, TenantID: user.TenantID}
	h.recorder.Log(scope, "LOGIN", "User", &user.ID,
		c.ClientIP(), c.Request.UserAgent(), models.StatusSuccess, nil)

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: *user})
}

// GetProfile returns the authenticated user's profile
// @Summary     Get profile
// @Description Get the authenticated operator's profile
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
