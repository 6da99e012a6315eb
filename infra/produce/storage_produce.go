package produce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	StorageExchange          = "storage.exchange"
	OrphanCleanupQueue       = "storage.orphan_cleanup"
	OrphanCleanupRoutingKey  = "storage.orphan_cleanup"
	OrphanReasonCommitFailed = "metadata_commit_failed"
)

// OrphanCleanupMessage asks the consumer to delete a stored object that may
// have been left without an images row.
type OrphanCleanupMessage struct {
	FeedID     string `json:"feed_id"`
	ImageID    string `json:"image_id"`
	StorageKey string `json:"storage_key"`
	Reason     string `json:"reason"`
	Timestamp  int64  `json:"timestamp"`
}

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type StorageService struct {
	publisher Publisher
}

func InitStorageService(channel *amqp.Channel) (*StorageService, error) {
	if err := channel.ExchangeDeclare(
		StorageExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare Storage exchange: %w", err)
	}

	if _, err := channel.QueueDeclare(
		OrphanCleanupQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare Orphan Cleanup queue: %w", err)
	}

	if err := channel.QueueBind(
		OrphanCleanupQueue,
		OrphanCleanupRoutingKey,
		StorageExchange,
		false,
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to bind Orphan Cleanup queue: %w", err)
	}

	return NewStorageService(channel), nil
}

func NewStorageService(publisher Publisher) *StorageService {
	return &StorageService{publisher: publisher}
}

func (s *StorageService) PublishOrphanCleanup(ctx context.Context, msg OrphanCleanupMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.publisher.PublishWithContext(
		ctx,
		StorageExchange,
		OrphanCleanupRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
