package service

import (
	"context"
	"time"
)

// SMSSender delivers a code to a mobile number. Generate logs its errors
// and never returns them.
type SMSSender interface {
	Send(ctx context.Context, mobileNumber string, code string) error
}

// SMSMessage is the payload published to downstream SMS dispatchers.
type SMSMessage struct {
	MobileNumber string    `json:"mobileNumber"`
	Message      string    `json:"message"`
	SentAt       time.Time `json:"sentAt"`
}

func newSMSMessage(mobileNumber, code string, now time.Time) SMSMessage {
	return SMSMessage{
		MobileNumber: mobileNumber,
		Message:      "Your OTP is: " + code,
		SentAt:       now.UTC(),
	}
}
