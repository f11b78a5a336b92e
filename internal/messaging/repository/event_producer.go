package repository

import (
	"context"
	"encoding/json"
	"time"

	"farmconnect/internal/messaging/domain"

	"github.com/segmentio/kafka-go"
)

// EventProducer publish messaging domain events for downstream consumers
// (通知摘要/分析等其他 FarmConnect 子系統)
type EventProducer interface {
	MessageSent(ctx context.Context, msg *domain.Message) error
}

type messageSentEvent struct {
	Type           string    `json:"type"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
}

type kafkaEventProducer struct {
	writer *kafka.Writer
}

// NewKafkaEventProducer create an EventProducer backed by a kafka writer
func NewKafkaEventProducer(writer *kafka.Writer) EventProducer {
	return &kafkaEventProducer{writer: writer}
}

// MessageSent publish a message_sent event keyed by conversation id
func (p *kafkaEventProducer) MessageSent(ctx context.Context, msg *domain.Message) error {
	event := messageSentEvent{
		Type:           "message_sent",
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		MessageType:    string(msg.MessageType),
		CreatedAt:      msg.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ConversationID),
		Value: data,
	})
}
