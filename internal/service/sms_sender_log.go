package service

import (
	"context"

	"go.uber.org/zap"
)

type logSMSSender struct {
	logger *zap.Logger
}

// NewLogSMSSender simulates delivery by logging the message. Local dev only.
func NewLogSMSSender(logger *zap.Logger) SMSSender {
	return &logSMSSender{logger: logger}
}

func (s *logSMSSender) Send(_ context.Context, mobileNumber string, code string) error {
	s.logger.Info("simulating sms",
		zap.String("mobile_number", mobileNumber),
		zap.String("otp", code),
	)
	return nil
}
