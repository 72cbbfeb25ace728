package model

import "time"

// KeySeparator joins mobile number and user id into an identity key.
const KeySeparator = ":"

// IdentityKey combines a mobile number and a user id into the storage key.
func IdentityKey(mobileNumber, userID string) string {
	return mobileNumber + KeySeparator + userID
}

// OTPRecord is a single live verification code for one identity key.
type OTPRecord struct {
	ID             string `gorm:"type:varchar(512);primaryKey" json:"id"`
	Code           string `gorm:"type:varchar(16);not null" json:"otp"`
	MobileNumber   string `gorm:"type:varchar(64);not null" json:"mobileNumber"`
	UserID         string `gorm:"type:varchar(255);not null" json:"userId"`
	ExpirationTime int64  `gorm:"not null;index" json:"expirationTime"` // epoch millis
}

func (OTPRecord) TableName() string { return "otp_records" }

// ExpiresAt returns ExpirationTime as a time.Time.
func (r *OTPRecord) ExpiresAt() time.Time {
	return time.UnixMilli(r.ExpirationTime)
}

// IsExpired reports whether the record is expired at now.
func (r *OTPRecord) IsExpired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpirationTime
}
