package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for the OTP tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&OTPRecord{},
		&OTPAuditEvent{},
	); err != nil {
		return err
	}

	// Lookups of the trail per identity are newest first.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_otp_audit_events_key_created " +
			"ON otp_audit_events (identity_key, created_at DESC)",
	).Error
}
