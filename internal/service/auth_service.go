package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sakshi-Mishra77/Smart-city-new/config"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/errs"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type userStore interface {
	Create(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByPhone(phone string) (*model.User, error)
	EmailExists(email string) (bool, error)
	PhoneExists(phone string) (bool, error)
	UpdatePassword(id uuid.UUID, passwordHash string) error
	UpdatePasswordByEmail(email, passwordHash string) error
	SetTwoFactorEnabled(id uuid.UUID, enabled bool) error
}

type resetStore interface {
	Create(reset *model.PasswordReset) error
	FindByToken(token string) (*model.PasswordReset, error)
	MarkUsed(token string) error
	InvalidateForEmail(email string) error
}

type otpFlow interface {
	Issue(user *model.User, purpose string) (*model.OtpChallengeResponse, error)
	Redeem(challengeID, purpose, code string) (*model.OtpChallenge, error)
}

type resetMailer interface {
	SendPasswordReset(to, token string) error
}

type AuthService struct {
	users     userStore
	resets    resetStore
	otp       otpFlow
	mailer    resetMailer
	jwtConfig config.JWTConfig
	resetTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthService(users userStore, resets resetStore, otp otpFlow, mailer resetMailer,
	jwtConfig config.JWTConfig, resetTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		resets:    resets,
		otp:       otp,
		mailer:    mailer,
		jwtConfig: jwtConfig,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

func (s *AuthService) Register(req *model.RegisterRequest) (*model.User, error) {
	if req.Email == "" && req.Phone == "" {
		return nil, errs.Invalid("Email or phone is required")
	}

	userType := model.UserType(req.UserType)
	var role model.OfficialRole
	switch userType {
	case model.TypeCitizen:
	case model.TypeOfficial:
		role = model.NormalizeOfficialRole(req.OfficialRole)
		if role == "" {
			return nil, errs.Invalid("A valid official role is required for official accounts")
		}
	case model.TypeHeadSupervisor:
	default:
		return nil, errs.Invalid("Invalid account type")
	}

	if req.Email != "" {
		exists, err := s.users.EmailExists(req.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errs.Invalid("Email already registered")
		}
	}
	if req.Phone != "" {
		exists, err := s.users.PhoneExists(req.Phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, errs.Invalid("Phone already registered")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
		UserType:     userType,
		OfficialRole: role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.Address != "" {
		user.Address = &req.Address
	}
	if req.Pincode != "" {
		user.Pincode = &req.Pincode
	}
	if req.WorkerSpecialization != "" {
		user.WorkerSpecialization = &req.WorkerSpecialization
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates the credentials and enforces the portal the client says
// it is. When the account has two-factor enabled an OTP challenge comes back
// instead of a session.
func (s *AuthService) Login(req *model.LoginRequest) (*model.LoginResponse, *model.OtpChallengeResponse, error) {
	user, err := s.findByIdentifier(req.Email, req.Phone)
	if err != nil {
		return nil, nil, errs.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, errs.ErrUnauthorized
	}

	if err := checkExpectedRole(user, req.ExpectedUserType, req.ExpectedOfficialRole); err != nil {
		return nil, nil, err
	}

	if user.TwoFactorEnabled {
		challenge, err := s.otp.Issue(user, model.OtpPurposeLogin)
		if err != nil {
			return nil, nil, err
		}
		return nil, challenge, nil
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, nil, err
	}

	return &model.LoginResponse{Token: token, User: *user}, nil, nil
}

// checkExpectedRole rejects sign-ins through the wrong portal. Citizens
// cannot enter the official portal and vice versa, and an official portal may
// pin an exact role.
func checkExpectedRole(user *model.User, expectedType, expectedRole string) error {
	if expectedType != "" {
		expected := model.UserType(expectedType)
		switch expected {
		case model.TypeCitizen:
			if user.UserType != model.TypeCitizen {
				return errs.Denied("This account is not a citizen account")
			}
		case model.TypeOfficial, model.TypeHeadSupervisor:
			if !model.IsOfficialAccount(user.UserType) {
				return errs.Denied("This account is not an official account")
			}
			if expected == model.TypeHeadSupervisor && user.UserType != model.TypeHeadSupervisor {
				return errs.Denied("This account is not a head supervisor account")
			}
		default:
			return errs.Invalid("Invalid account type")
		}
	}
	if expectedRole != "" {
		role := model.NormalizeOfficialRole(expectedRole)
		if role == "" {
			return errs.Invalid("Invalid official role")
		}
		if user.UserType == model.TypeHeadSupervisor {
			// Head supervisors may enter any official role portal.
			return nil
		}
		if user.OfficialRole != role {
			return errs.Denied("This account does not have the selected role")
		}
	}
	return nil
}

// VerifyLoginOtp completes a two-factor sign-in.
func (s *AuthService) VerifyLoginOtp(req *model.VerifyOtpRequest) (*model.LoginResponse, error) {
	challenge, err := s.otp.Redeem(req.ChallengeID, model.OtpPurposeLogin, req.Otp)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(challenge.UserID)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{Token: token, User: *user}, nil
}

// ForgotPassword issues a reset token. It succeeds silently when no account
// matches, so the endpoint does not leak which emails exist.
func (s *AuthService) ForgotPassword(req *model.ForgotPasswordRequest) error {
	user, err := s.findByIdentifier(req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrInvalidInput) {
			return nil
		}
		return err
	}
	if user.Email == nil || *user.Email == "" {
		return nil
	}

	if err := s.resets.InvalidateForEmail(*user.Email); err != nil {
		return err
	}

	now := time.Now()
	reset := &model.PasswordReset{
		Token:     ulid.Make().String(),
		Email:     *user.Email,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(reset); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(*user.Email, reset.Token); err != nil {
		s.logger.Warn("password reset delivery failed", zap.Error(err))
	}
	return nil
}

func (s *AuthService) ResetPassword(req *model.ResetPasswordRequest) error {
	reset, err := s.resets.FindByToken(req.Token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.Invalid("Invalid or expired reset token")
		}
		return err
	}
	if reset.Used || time.Now().After(reset.ExpiresAt) {
		return errs.Invalid("Invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordByEmail(reset.Email, string(hashedPassword)); err != nil {
		return err
	}
	return s.resets.MarkUsed(req.Token)
}

// RequestPasswordChange verifies the current password and mints a
// change-password challenge.
func (s *AuthService) RequestPasswordChange(userID uuid.UUID, req *model.ChangePasswordRequestOtp) (*model.OtpChallengeResponse, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, errs.Invalid("Current password is incorrect")
	}
	return s.otp.Issue(user, model.OtpPurposeChangePassword)
}

// ConfirmPasswordChange redeems the challenge and writes the new password.
// The challenge must belong to the acting user.
func (s *AuthService) ConfirmPasswordChange(userID uuid.UUID, req *model.ChangePasswordConfirm) error {
	challenge, err := s.otp.Redeem(req.ChallengeID, model.OtpPurposeChangePassword, req.Otp)
	if err != nil {
		return err
	}
	if challenge.UserID != userID {
		return errs.Invalid("Invalid or expired verification code")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(userID, string(hashedPassword))
}

// RequestTwoFactorChange mints an enable or disable challenge, rejecting
// no-op requests.
func (s *AuthService) RequestTwoFactorChange(userID uuid.UUID, enable bool) (*model.OtpChallengeResponse, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if enable && user.TwoFactorEnabled {
		return nil, errs.Invalid("Two-factor authentication is already enabled")
	}
	if !enable && !user.TwoFactorEnabled {
		return nil, errs.Invalid("Two-factor authentication is not enabled")
	}

	purpose := model.OtpPurposeEnable2FA
	if !enable {
		purpose = model.OtpPurposeDisable2FA
	}
	return s.otp.Issue(user, purpose)
}

func (s *AuthService) ConfirmTwoFactorChange(userID uuid.UUID, req *model.VerifyOtpRequest, enable bool) error {
	purpose := model.OtpPurposeEnable2FA
	if !enable {
		purpose = model.OtpPurposeDisable2FA
	}
	challenge, err := s.otp.Redeem(req.ChallengeID, purpose, req.Otp)
	if err != nil {
		return err
	}
	if challenge.UserID != userID {
		return errs.Invalid("Invalid or expired verification code")
	}
	return s.users.SetTwoFactorEnabled(userID, enable)
}

func (s *AuthService) GetUserByID(id uuid.UUID) (*model.User, error) {
	return s.users.FindByID(id)
}

func (s *AuthService) findByIdentifier(email, phone string) (*model.User, error) {
	if email != "" {
		return s.users.FindByEmail(email)
	}
	if phone != "" {
		return s.users.FindByPhone(phone)
	}
	return nil, errs.Invalid("Email or phone is required")
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	claims := jwt.MapClaims{
		"user_id":       user.ID.String(),
		"email":         email,
		"name":          user.Name,
		"user_type":     string(user.UserType),
		"official_role": string(user.OfficialRole),
		"exp":           time.Now().Add(time.Hour * time.Duration(s.jwtConfig.ExpirationHours)).Unix(),
		"iat":           time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

// Claims is the decoded identity the auth middleware attaches to a request.
type Claims struct {
	UserID       uuid.UUID
	Name         string
	Email        string
	UserType     model.UserType
	OfficialRole model.OfficialRole
}

// ValidateToken parses and verifies a bearer token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errs.ErrUnauthorized
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.ErrUnauthorized
	}

	rawID, _ := mapClaims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}

	claims := &Claims{UserID: userID}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if userType, ok := mapClaims["user_type"].(string); ok {
		claims.UserType = model.UserType(userType)
	}
	if role, ok := mapClaims["official_role"].(string); ok {
		claims.OfficialRole = model.OfficialRole(role)
	}

	return claims, nil
}
