package otp

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes codes to the application log instead of delivering
// them. Used in debug mode and wherever no email provider is wired.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email, code string) error {
	s.logger.Info("verification code issued",
		zap.String("email", email),
		zap.String("code", code))
	return nil
}
