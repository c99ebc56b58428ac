package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ecorder/internal/domain/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID    = "event-id"
	HeaderOccurredAt = "occurred-at"
)

// トピック = イベント種別、キー = 集約ID
type KafkaPublisher struct {
	writer *kafka.Writer
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType model.EventType, key string, payload any) error {
	msg, err := encodeMessage(eventType, key, payload, uuid.NewString(), p.now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encodeMessage(eventType model.EventType, key string, payload any, eventID string, at time.Time) (kafka.Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return kafka.Message{
		Topic: string(eventType),
		Key:   []byte(key),
		Value: value,
		Time:  at,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(eventID)},
			{Key: HeaderOccurredAt, Value: []byte(at.UTC().Format(time.RFC3339Nano))},
		},
	}, nil
}

// ブローカー未設定のとき。ログに出すだけ。
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, eventType model.EventType, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	p.logger.InfoContext(ctx, "event", "type", eventType, "key", key, "payload", json.RawMessage(value))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
