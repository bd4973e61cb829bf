package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

// Mailer delivers one-time codes and reset links over email.
type Mailer interface {
	SendOtp(to, code, purpose string) error
	SendPasswordReset(to, token string) error
}

// SmsSender delivers one-time codes over SMS.
type SmsSender interface {
	SendOtp(to, code, purpose string) error
}

type otpStore interface {
	Create(challenge *model.OtpChallenge) error
	FindByID(id string) (*model.OtpChallenge, error)
	LatestActive(userID uuid.UUID, purpose string) (*model.OtpChallenge, error)
	InvalidateActive(userID uuid.UUID, purpose string) error
	IncrementAttempts(id string) (int, error)
	MarkUsed(id string) error
}

type OtpConfig struct {
	Secret           string
	ExpireMinutes    int
	MaxAttempts      int
	MinResendSeconds int
}

type OtpService struct {
	store  otpStore
	mailer Mailer
	sms    SmsSender
	cfg    OtpConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewOtpService(store otpStore, mailer Mailer, sms SmsSender, cfg OtpConfig, logger *zap.Logger) *OtpService {
	return &OtpService{
		store:  store,
		mailer: mailer,
		sms:    sms,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Issue mints a new challenge for the user and purpose, superseding any
// outstanding one, and sends the code over every channel the user has.
func (s *OtpService) Issue(user *model.User, purpose string) (*model.OtpChallengeResponse, error) {
	if active, err := s.store.LatestActive(user.ID, purpose); err == nil {
		wait := time.Duration(s.cfg.MinResendSeconds) * time.Second
		if s.now().Sub(active.CreatedAt) < wait {
			return nil, fmt.Errorf("%w: please wait before requesting another code", errs.ErrTooManyRequests)
		}
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	if err := s.store.InvalidateActive(user.ID, purpose); err != nil {
		return nil, err
	}

	code, err := generateOtpCode()
	if err != nil {
		return nil, err
	}

	var channels []string
	if user.Email != nil && *user.Email != "" {
		channels = append(channels, "email")
	}
	if user.Phone != nil && *user.Phone != "" {
		channels = append(channels, "sms")
	}
	if len(channels) == 0 {
		return nil, errs.Invalid("No delivery channel available for verification codes")
	}

	now := s.now()
	challenge := &model.OtpChallenge{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Purpose:   purpose,
		OtpHash:   s.hashCode(code),
		Channels:  channels,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(s.cfg.ExpireMinutes) * time.Minute),
	}
	if err := s.store.Create(challenge); err != nil {
		return nil, err
	}

	resp := &model.OtpChallengeResponse{
		RequiresOtp: true,
		ChallengeID: challenge.ID,
		Channels:    channels,
	}
	if user.Email != nil && *user.Email != "" {
		if err := s.mailer.SendOtp(*user.Email, code, purpose); err != nil {
			s.logger.Warn("otp email delivery failed", zap.String("challenge_id", challenge.ID), zap.Error(err))
		}
		resp.MaskedEmail = MaskEmail(*user.Email)
	}
	if user.Phone != nil && *user.Phone != "" {
		if err := s.sms.SendOtp(*user.Phone, code, purpose); err != nil {
			s.logger.Warn("otp sms delivery failed", zap.String("challenge_id", challenge.ID), zap.Error(err))
		}
		resp.MaskedPhone = MaskPhone(*user.Phone)
	}

	return resp, nil
}

// Redeem validates the code against the challenge and consumes it. Callers
// that already know the acting user must check the returned challenge's
// UserID against it.
func (s *OtpService) Redeem(challengeID, purpose, code string) (*model.OtpChallenge, error) {
	challenge, err := s.store.FindByID(challengeID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Invalid("Invalid or expired verification code")
		}
		return nil, err
	}

	if challenge.Used || challenge.Purpose != purpose {
		return nil, errs.Invalid("Invalid or expired verification code")
	}
	if challenge.Expired(s.now()) {
		return nil, errs.Invalid("Verification code has expired")
	}

	attempts, err := s.store.IncrementAttempts(challengeID)
	if err != nil {
		return nil, err
	}
	if attempts > s.cfg.MaxAttempts {
		if err := s.store.MarkUsed(challengeID); err != nil {
			return nil, err
		}
		return nil, errs.Invalid("Too many incorrect attempts. Request a new code")
	}

	if !hmac.Equal([]byte(s.hashCode(code)), []byte(challenge.OtpHash)) {
		return nil, errs.Invalid("Incorrect verification code")
	}

	if err := s.store.MarkUsed(challengeID); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *OtpService) hashCode(code string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// MaskEmail hides most of the local part: jane.doe@example.com -> ja***@example.com
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	if len(local) <= 2 {
		return local[:1] + "***" + email[at:]
	}
	return local[:2] + "***" + email[at:]
}

// MaskPhone keeps only the last two digits: +62812345678 -> ********78
func MaskPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	return strings.Repeat("*", len(phone)-2) + phone[len(phone)-2:]
}
