package repository

import (
	"context"

	"biliticket/otpservice/internal/model"
)

type AuditRepository interface {
	Create(ctx context.Context, event *model.OTPAuditEvent) error
	ListByIdentityKey(ctx context.Context, identityKey string, limit int) ([]model.OTPAuditEvent, error)
}
