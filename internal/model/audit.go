package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditEvent string

const (
	AuditEventGenerated AuditEvent = "generated"
	AuditEventValidated AuditEvent = "validated"
)

// OTPAuditEvent records one lifecycle step of a code. The code itself is never stored.
type OTPAuditEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	IdentityKey string     `gorm:"type:varchar(512);not null;index" json:"identity_key"`
	Event       AuditEvent `gorm:"type:varchar(32);not null" json:"event"`
	Outcome     string     `gorm:"type:varchar(32)" json:"outcome,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (OTPAuditEvent) TableName() string { return "otp_audit_events" }
