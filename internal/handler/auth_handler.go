package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/middleware"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type authService interface {
	Register(req *model.RegisterRequest) (*model.User, error)
	Login(req *model.LoginRequest) (*model.LoginResponse, *model.OtpChallengeResponse, error)
	VerifyLoginOtp(req *model.VerifyOtpRequest) (*model.LoginResponse, error)
	ForgotPassword(req *model.ForgotPasswordRequest) error
	ResetPassword(req *model.ResetPasswordRequest) error
	RequestPasswordChange(userID uuid.UUID, req *model.ChangePasswordRequestOtp) (*model.OtpChallengeResponse, error)
	ConfirmPasswordChange(userID uuid.UUID, req *model.ChangePasswordConfirm) error
	RequestTwoFactorChange(userID uuid.UUID, enable bool) (*model.OtpChallengeResponse, error)
	ConfirmTwoFactorChange(userID uuid.UUID, req *model.VerifyOtpRequest, enable bool) error
}

type AuthHandler struct {
	auth authService
}

func NewAuthHandler(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.Register(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, user)
}

// Handles POST /api/auth/login. Two-factor accounts get a challenge instead
// of a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	session, challenge, err := h.auth.Login(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if challenge != nil {
		respondOK(c, challenge)
		return
	}

	respondOK(c, session)
}

// Handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	var req model.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.VerifyLoginOtp(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, session)
}

// Handles POST /api/auth/logout. Sessions are stateless JWTs; the client
// drops the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondMessage(c, "Logged out")
}

// Handles POST /api/auth/forgot-password. Always succeeds so the endpoint
// cannot be used to probe which accounts exist.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ForgotPassword(&req); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, "If the account exists, a reset link has been sent")
}

// Handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ResetPassword(&req); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, "Password has been reset")
}

// Handles POST /api/auth/change-password/request-otp
func (h *AuthHandler) RequestPasswordChange(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req model.ChangePasswordRequestOtp
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	challenge, err := h.auth.RequestPasswordChange(claims.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, challenge)
}

// Handles POST /api/auth/change-password/confirm
func (h *AuthHandler) ConfirmPasswordChange(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	var req model.ChangePasswordConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ConfirmPasswordChange(claims.UserID, &req); err != nil {
		respondServiceError(c, err)
		return
	}

	respondMessage(c, "Password changed")
}

// Handles POST /api/auth/2fa/enable/request-otp and .../disable/request-otp
func (h *AuthHandler) RequestTwoFactorChange(enable bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.ClaimsFrom(c)
		challenge, err := h.auth.RequestTwoFactorChange(claims.UserID, enable)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondOK(c, challenge)
	}
}

// Handles POST /api/auth/2fa/enable/confirm and .../disable/confirm
func (h *AuthHandler) ConfirmTwoFactorChange(enable bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.ClaimsFrom(c)
		var req model.VerifyOtpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.auth.ConfirmTwoFactorChange(claims.UserID, &req, enable); err != nil {
			respondServiceError(c, err)
			return
		}
		if enable {
			respondMessage(c, "Two-factor authentication enabled")
			return
		}
		respondMessage(c, "Two-factor authentication disabled")
	}
}
