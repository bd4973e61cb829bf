package service

import "go.uber.org/zap"

// LogMailer writes codes to the application log instead of a mail provider.
// Stands in until an SMTP or API-based sender is wired up.
type LogMailer struct {
	Logger *zap.Logger
}

func (m *LogMailer) SendOtp(to, code, purpose string) error {
	m.Logger.Info("otp email",
		zap.String("to", MaskEmail(to)),
		zap.String("purpose", purpose),
		zap.String("code", code),
	)
	return nil
}

func (m *LogMailer) SendPasswordReset(to, token string) error {
	m.Logger.Info("password reset email",
		zap.String("to", MaskEmail(to)),
		zap.String("token", token),
	)
	return nil
}

// LogSmsSender writes codes to the application log instead of an SMS gateway.
type LogSmsSender struct {
	Logger *zap.Logger
}

func (m *LogSmsSender) SendOtp(to, code, purpose string) error {
	m.Logger.Info("otp sms",
		zap.String("to", MaskPhone(to)),
		zap.String("purpose", purpose),
		zap.String("code", code),
	)
	return nil
}
