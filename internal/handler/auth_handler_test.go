package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type stubAuthService struct {
	session   *model.LoginResponse
	challenge *model.OtpChallengeResponse
	user      *model.User
	err       error
}

func (s *stubAuthService) Register(req *model.RegisterRequest) (*model.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) Login(req *model.LoginRequest) (*model.LoginResponse, *model.OtpChallengeResponse, error) {
	return s.session, s.challenge, s.err
}

func (s *stubAuthService) VerifyLoginOtp(req *model.VerifyOtpRequest) (*model.LoginResponse, error) {
	return s.session, s.err
}

func (s *stubAuthService) ForgotPassword(req *model.ForgotPasswordRequest) error { return s.err }
func (s *stubAuthService) ResetPassword(req *model.ResetPasswordRequest) error   { return s.err }

func (s *stubAuthService) RequestPasswordChange(userID uuid.UUID, req *model.ChangePasswordRequestOtp) (*model.OtpChallengeResponse, error) {
	return s.challenge, s.err
}

func (s *stubAuthService) ConfirmPasswordChange(userID uuid.UUID, req *model.ChangePasswordConfirm) error {
	return s.err
}

func (s *stubAuthService) RequestTwoFactorChange(userID uuid.UUID, enable bool) (*model.OtpChallengeResponse, error) {
	return s.challenge, s.err
}

func (s *stubAuthService) ConfirmTwoFactorChange(userID uuid.UUID, req *model.VerifyOtpRequest, enable bool) error {
	return s.err
}

func newAuthRouter(svc authService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(svc)
	auth := r.Group("/api/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/verify-otp", h.VerifyOtp)
	auth.POST("/forgot-password", h.ForgotPassword)
	return r
}

func TestLoginReturnsSessionEnvelope(t *testing.T) {
	svc := &stubAuthService{session: &model.LoginResponse{
		Token: "signed.jwt.token",
		User:  model.User{ID: uuid.New(), Name: "Asha Citizen", UserType: model.TypeCitizen},
	}}
	r := newAuthRouter(svc)

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "asha@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "signed.jwt.token", data["token"])
	assert.Equal(t, "Asha Citizen", data["user"].(map[string]any)["name"])
}

func TestLoginReturnsChallengeForTwoFactorAccounts(t *testing.T) {
	svc := &stubAuthService{challenge: &model.OtpChallengeResponse{
		RequiresOtp: true,
		ChallengeID: "01CHALLENGE",
		Channels:    []string{"email"},
		MaskedEmail: "as***@example.com",
	}}
	r := newAuthRouter(svc)

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "asha@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["requiresOtp"])
	assert.Equal(t, "01CHALLENGE", data["challengeId"])
	_, hasToken := data["token"]
	assert.False(t, hasToken, "challenge response must not leak a session token")
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := newAuthRouter(&stubAuthService{err: errs.ErrUnauthorized})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestLoginPortalMismatchSurfacesMessage(t *testing.T) {
	r := newAuthRouter(&stubAuthService{err: errs.Denied("This account is not a citizen account")})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login",
		gin.H{"email": "official@example.com", "password": "s3cret-pass", "expectedUserType": "citizen"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "This account is not a citizen account", body["error"])
}

func TestForgotPasswordAlwaysGeneric(t *testing.T) {
	r := newAuthRouter(&stubAuthService{})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password",
		gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "If the account exists, a reset link has been sent", body["message"])
}

func TestVerifyOtpRejectsBadCode(t *testing.T) {
	r := newAuthRouter(&stubAuthService{err: errs.Invalid("Incorrect verification code")})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/verify-otp",
		gin.H{"challengeId": "01CHALLENGE", "otp": "000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Incorrect verification code", body["error"])
}

func TestRegisterCreated(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Asha Citizen", UserType: model.TypeCitizen}
	r := newAuthRouter(&stubAuthService{user: user})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Asha Citizen", "email": "asha@example.com",
		"password": "s3cret-pass", "userType": "citizen",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Asha Citizen", body["data"].(map[string]any)["name"])
}
