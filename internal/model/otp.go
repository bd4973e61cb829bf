package model

import (
	"time"

	"github.com/google/uuid"
)

// OTP purposes. Each challenge is minted for exactly one of these and cannot
// be redeemed for another.
const (
	OtpPurposeLogin          = "login_2fa"
	OtpPurposeChangePassword = "change_password"
	OtpPurposeEnable2FA      = "enable_2fa"
	OtpPurposeDisable2FA     = "disable_2fa"
)

// OtpChallenge is a single pending one-time code. Only the HMAC of the code
// is stored.
type OtpChallenge struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Purpose   string    `json:"purpose"`
	OtpHash   string    `json:"-"`
	Attempts  int       `json:"attempts"`
	Used      bool      `json:"used"`
	Channels  []string  `json:"channels"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// PasswordReset is a single-use reset token issued by the forgot-password flow.
type PasswordReset struct {
	Token     string     `json:"-"`
	Email     string     `json:"email"`
	Used      bool       `json:"used"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}
