package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"biliticket/otpservice/internal/model"
	"biliticket/otpservice/internal/repository"
	"biliticket/otpservice/pkg/clock"
	"biliticket/otpservice/pkg/crypto"
)

const (
	// CodeLength is the number of digits in a generated code.
	CodeLength = 6
	// DefaultTTL is how long a generated code stays valid.
	DefaultTTL = 5 * time.Minute
)

type OTPService interface {
	// Generate issues a new code for the pair, replacing any previous one.
	Generate(ctx context.Context, mobileNumber, userID string) (string, error)
	// Validate consumes the pair's code and reports whether code matched and was unexpired.
	Validate(ctx context.Context, mobileNumber, userID, code string) (bool, error)
}

type Option func(*otpService)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *otpService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(s *otpService) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithAuditRepository records every generation and validation outcome.
func WithAuditRepository(repo repository.AuditRepository) Option {
	return func(s *otpService) {
		s.auditRepo = repo
	}
}

// WithDeliveryTimeout bounds each SMSSender.Send call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *otpService) {
		s.deliveryTimeout = d
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *otpService) {
		s.metrics = m
	}
}

type otpService struct {
	store     repository.RecordStore
	sender    SMSSender
	auditRepo repository.AuditRepository
	metrics   *Metrics
	clock     clock.Clock
	ttl       time.Duration
	logger    *zap.Logger

	deliveryTimeout time.Duration
}

func NewOTPService(store repository.RecordStore, sender SMSSender, logger *zap.Logger, opts ...Option) OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &otpService{
		store:  store,
		sender: sender,
		clock:  clock.New(),
		ttl:    DefaultTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *otpService) Generate(ctx context.Context, mobileNumber, userID string) (string, error) {
	// 1. Precondition
	if err := checkIdentity(mobileNumber, userID); err != nil {
		return "", err
	}

	// 2. Code
	code, err := crypto.GenerateNumericCode(CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	// 3. Record, replacing any previous code for the pair
	key := model.IdentityKey(mobileNumber, userID)
	record := &model.OTPRecord{
		ID:             key,
		Code:           code,
		MobileNumber:   mobileNumber,
		UserID:         userID,
		ExpirationTime: s.clock.Now().Add(s.ttl).UnixMilli(),
	}
	if err := s.store.Put(ctx, key, record); err != nil {
		s.metrics.storeError("put")
		s.logger.Error("failed to store otp", zap.String("id", key), zap.Error(err))
		return "", fmt.Errorf("store otp: %w", err)
	}
	s.metrics.generated()
	s.audit(ctx, key, model.AuditEventGenerated, "")

	// 4. Delivery failures leave the stored code usable; the caller recovers by generating again.
	if s.sender != nil {
		if err := s.deliver(ctx, mobileNumber, code); err != nil {
			s.metrics.deliveryFailed()
			s.logger.Error("failed to deliver otp",
				zap.String("id", key),
				zap.String("mobile_number", mobileNumber),
				zap.Error(err),
			)
		}
	}

	return code, nil
}

func (s *otpService) deliver(ctx context.Context, mobileNumber, code string) error {
	if s.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deliveryTimeout)
		defer cancel()
	}
	return s.sender.Send(ctx, mobileNumber, code)
}

func (s *otpService) Validate(ctx context.Context, mobileNumber, userID, code string) (bool, error) {
	outcome, err := s.validate(ctx, mobileNumber, userID, code)
	if err != nil {
		return false, err
	}
	return outcome == OutcomeSuccess, nil
}

func (s *otpService) validate(ctx context.Context, mobileNumber, userID, code string) (Outcome, error) {
	if err := checkIdentity(mobileNumber, userID); err != nil {
		return "", err
	}
	key := model.IdentityKey(mobileNumber, userID)

	// 1. Consume. Whatever happens next, the record is gone.
	record, err := s.store.TakeIfPresent(ctx, key)
	if err != nil {
		s.metrics.storeError("take")
		s.logger.Error("failed to take otp", zap.String("id", key), zap.Error(err))
		return "", fmt.Errorf("take otp: %w", err)
	}

	outcome := classify(record, code, s.clock.Now())
	s.metrics.validated(outcome)
	s.audit(ctx, key, model.AuditEventValidated, outcome)

	switch outcome {
	case OutcomeNotFound:
		s.logger.Warn("otp validation failed: no otp found", zap.String("id", key))
	case OutcomeMismatch:
		s.logger.Warn("otp validation failed: code mismatch", zap.String("id", key))
	case OutcomeExpired:
		s.logger.Warn("otp validation failed: otp expired", zap.String("id", key))
	default:
		s.logger.Info("otp validated", zap.String("id", key))
	}
	return outcome, nil
}

// classify applies the checks in order: presence, exact code match, expiry.
func classify(record *model.OTPRecord, code string, now time.Time) Outcome {
	switch {
	case record == nil:
		return OutcomeNotFound
	case record.Code != code:
		return OutcomeMismatch
	case record.IsExpired(now):
		return OutcomeExpired
	default:
		return OutcomeSuccess
	}
}

func (s *otpService) audit(ctx context.Context, key string, event model.AuditEvent, outcome Outcome) {
	if s.auditRepo == nil {
		return
	}
	entry := &model.OTPAuditEvent{
		IdentityKey: key,
		Event:       event,
		Outcome:     string(outcome),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write otp audit event",
			zap.String("id", key),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}

// checkIdentity rejects pairs that cannot form an unambiguous identity key.
// The separator is only banned from the mobile number, so the first separator
// in a key always ends it.
func checkIdentity(mobileNumber, userID string) error {
	if isBlank(mobileNumber) || isBlank(userID) {
		return fmt.Errorf("%w: mobile number and user id must not be empty", ErrInvalidInput)
	}
	if strings.Contains(mobileNumber, model.KeySeparator) {
		return fmt.Errorf("%w: mobile number must not contain %q", ErrInvalidInput, model.KeySeparator)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

var _ OTPService = (*otpService)(nil)
