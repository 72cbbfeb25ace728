package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"biliticket/otpservice/internal/config"
)

// KafkaSMSSender publishes SMSMessage events keyed by mobile number, so all
// codes for one number land on the same partition in order.
type KafkaSMSSender struct {
	writer *kafka.Writer
}

func NewKafkaSMSSender(cfg config.KafkaConfig) (*KafkaSMSSender, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return &KafkaSMSSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: cfg.WriteTimeout,
		},
	}, nil
}

func (s *KafkaSMSSender) Send(ctx context.Context, mobileNumber string, code string) error {
	payload, err := json.Marshal(newSMSMessage(mobileNumber, code, time.Now()))
	if err != nil {
		return fmt.Errorf("encode sms message: %w", err)
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(mobileNumber),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish sms message: %w", err)
	}
	return nil
}

func (s *KafkaSMSSender) Close() error {
	return s.writer.Close()
}
