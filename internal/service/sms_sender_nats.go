package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const natsFlushTimeout = 2 * time.Second

type NATSSMSSender struct {
	conn    *nats.Conn
	subject string
}

func NewNATSSMSSender(conn *nats.Conn, subject string) (*NATSSMSSender, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	return &NATSSMSSender{conn: conn, subject: subject}, nil
}

func (s *NATSSMSSender) Send(ctx context.Context, mobileNumber string, code string) error {
	payload, err := json.Marshal(newSMSMessage(mobileNumber, code, time.Now()))
	if err != nil {
		return fmt.Errorf("encode sms message: %w", err)
	}
	if err := s.conn.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("publish sms message: %w", err)
	}
	// FlushWithContext requires a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, natsFlushTimeout)
		defer cancel()
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush sms message: %w", err)
	}
	return nil
}

func (s *NATSSMSSender) Close() error {
	return s.conn.Drain()
}
