// Package httpapi exposes the authentication operations over a JSON REST
// API. The handler layer is deliberately thin: it binds and validates
// request bodies, delegates to the service layer, and maps service errors
// to HTTP status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// AuthService is the service surface the handler needs. *services.AuthService
// satisfies it.
type AuthService interface {
	Register(ctx context.Context, email, password string, profile services.Profile) error
	ConfirmEmail(ctx context.Context, tokenValue string) error
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenValue, newPassword string) error
	ValidateToken(ctx context.Context, accessToken string) (*services.UserInfo, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Handler struct {
	auth   AuthService
	logger logging.Logger
}

func NewHandler(auth AuthService, logger logging.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger.With("module", "http_handler"),
	}
}

// InitRoutes builds the gin engine with all public routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/auth")
	{
		api.POST("/register", h.register)
		api.POST("/confirm-email", h.confirmEmail)
		api.POST("/login", h.login)
		api.POST("/refresh", h.refresh)
		api.POST("/forgot-password", h.forgotPassword)
		api.POST("/reset-password", h.resetPassword)
		api.POST("/validate", h.validate)
		api.POST("/logout", h.logout)
	}

	return router
}

// --- request/response shapes ---

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type validateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userInfoResponse struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

// serviceError translates the service error taxonomy to HTTP. Token-shaped
// failures are client errors: the caller supplied a token that cannot be
// honored.
func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorConflict):
		newErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		newErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		newErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrorBadRequest),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenInvalid),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenAlreadyUsed):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

// --- handlers ---

// POST /api/auth/register
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	profile := services.Profile{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.auth.Register(c.Request.Context(), req.Email, req.Password, profile); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, apiResponse{
		Success: true,
		Message: "User registered successfully. Please check your email to verify your account.",
	})
}

// POST /api/auth/confirm-email?token=...
func (h *Handler) confirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		newErrorResponse(c, http.StatusBadRequest, "token query parameter is required")
		return
	}

	if err := h.auth.ConfirmEmail(c.Request.Context(), token); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "Email confirmed successfully. You can now login.",
	})
}

// POST /api/auth/login
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/auth/refresh
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/auth/forgot-password
func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "Password reset link sent to your email.",
	})
}

// POST /api/auth/reset-password
func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "Password has been reset successfully.",
	})
}

// POST /api/auth/validate
//
// Internal endpoint used by other services to authorize requests. Any
// verification failure is reported as 401, not 400: from the caller's
// perspective the bearer is simply not authenticated.
func (h *Handler) validate(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.auth.ValidateToken(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenMalformed),
			errors.Is(err, common.ErrTokenInvalid),
			errors.Is(err, common.ErrTokenExpired):
			newErrorResponse(c, http.StatusUnauthorized, err.Error())
		default:
			h.serviceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, userInfoResponse{
		UserID: info.AccountID,
		Email:  info.Email,
		Roles:  info.Roles,
	})
}

// POST /api/auth/logout
func (h *Handler) logout(c *gin.Context) {
	// The body is optional: logging out without a refresh token is fine.
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, apiResponse{Success: true, Message: "Logout successful."})
}
