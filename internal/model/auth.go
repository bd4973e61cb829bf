package model

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// OtpChallengeResponse is returned instead of a session when the account has
// two-factor enabled, or by the request-otp step of the change-password and
// 2FA flows.
type OtpChallengeResponse struct {
	RequiresOtp bool     `json:"requiresOtp,omitempty"`
	ChallengeID string   `json:"challengeId"`
	Channels    []string `json:"channels"`
	MaskedEmail string   `json:"maskedEmail,omitempty"`
	MaskedPhone string   `json:"maskedPhone,omitempty"`
}

type VerifyOtpRequest struct {
	ChallengeID string `json:"challengeId" binding:"required"`
	Otp         string `json:"otp" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type ChangePasswordRequestOtp struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
}

type ChangePasswordConfirm struct {
	ChallengeID string `json:"challengeId" binding:"required"`
	Otp         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}
