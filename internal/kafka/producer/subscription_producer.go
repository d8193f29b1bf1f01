package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/IBM/sarama"
)

// Topics for subscription lifecycle events emitted after reconciliation.
const (
	TopicSubscriptionActivated     = "subscription.activated"
	TopicSubscriptionPaymentFailed = "subscription.payment_failed"
)

// SubscriptionEvent is the message body published after a subscription
// document has been updated from a webhook.
type SubscriptionEvent struct {
	DocumentID     string    `json:"document_id"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	PaymentID      string    `json:"payment_id"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// SubscriptionProducer publishes subscription lifecycle events.
type SubscriptionProducer interface {
	PublishSubscriptionActivated(ctx context.Context, event SubscriptionEvent) error
	PublishSubscriptionPaymentFailed(ctx context.Context, event SubscriptionEvent) error
	Close() error
}

type kafkaSubscriptionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaSubscriptionProducer wraps a sarama SyncProducer.
func NewKafkaSubscriptionProducer(producer sarama.SyncProducer, log *logger.Logger) SubscriptionProducer {
	return &kafkaSubscriptionProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionActivated publishes an activation event.
func (p *kafkaSubscriptionProducer) PublishSubscriptionActivated(ctx context.Context, event SubscriptionEvent) error {
	return p.publishEvent(ctx, TopicSubscriptionActivated, event)
}

// PublishSubscriptionPaymentFailed publishes a payment-failure event.
func (p *kafkaSubscriptionProducer) PublishSubscriptionPaymentFailed(ctx context.Context, event SubscriptionEvent) error {
	return p.publishEvent(ctx, TopicSubscriptionPaymentFailed, event)
}

// publishEvent serializes and sends one event. The document ID is the message
// key so every event for one subscription lands in the same partition.
func (p *kafkaSubscriptionProducer) publishEvent(ctx context.Context, topic string, event SubscriptionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka: context cancelled before publish: %w", err)
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.log.Errorw("Failed to marshal subscription event for Kafka", "error", err, "documentID", event.DocumentID, "topic", topic)
		return fmt.Errorf("kafka: failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(event.DocumentID),
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish subscription event to Kafka", "error", err, "topic", topic, "documentID", event.DocumentID)
		return fmt.Errorf("kafka: failed to send message: %w", err)
	}

	p.log.Debugw("Published subscription event",
		"topic", topic,
		"documentID", event.DocumentID,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// Close shuts the underlying producer down.
func (p *kafkaSubscriptionProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		p.log.Errorw("Failed to close Kafka producer", "error", err)
		return fmt.Errorf("kafka: failed to close producer: %w", err)
	}
	return nil
}
