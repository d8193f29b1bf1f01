package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirsiprashanth/trigr-payments/internal/kafka/producer"
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/IBM/sarama"
	kafkaGo "github.com/segmentio/kafka-go"
)

// NewSyncProducer builds the sarama producer used for subscription events.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true

	return sarama.NewSyncProducer(brokers, config)
}

// EnsureTopics verifies the subscription event topics exist, creating any that
// are missing.
func EnsureTopics(brokers []string, log *logger.Logger) error {
	requiredTopics := map[string]kafkaGo.TopicConfig{
		producer.TopicSubscriptionActivated: {
			Topic:             producer.TopicSubscriptionActivated,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		producer.TopicSubscriptionPaymentFailed: {
			Topic:             producer.TopicSubscriptionPaymentFailed,
			NumPartitions:     2,
			ReplicationFactor: 1,
		},
	}

	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}
	_, portStr, err := net.SplitHostPort(strings.TrimSpace(brokers[0]))
	if err != nil {
		return fmt.Errorf("invalid broker address %s: %w", brokers[0], err)
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid broker port %s: %w", brokers[0], err)
	}

	connCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existing := make(map[string]bool)
	for _, p := range partitions {
		existing[p.Topic] = true
	}

	var toCreate []kafkaGo.TopicConfig
	for name, config := range requiredTopics {
		if !existing[name] {
			toCreate = append(toCreate, config)
		}
	}

	if len(toCreate) == 0 {
		log.Debugw("All required Kafka topics already exist")
		return nil
	}

	if err := conn.CreateTopics(toCreate...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warnw("Kafka topics already existed during creation attempt")
			return nil
		}
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Infow("Created Kafka topics", "count", len(toCreate))
	return nil
}
