package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/infra/produce"
	"github.com/tnqbao/gau-feed-service/repository"
)

type StorageCleanupConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
}

func NewStorageCleanupConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *StorageCleanupConsumer {
	return &StorageCleanupConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
	}
}

func (c *StorageCleanupConsumer) Start(ctx context.Context) error {
	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		produce.OrphanCleanupQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register orphan cleanup consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Storage Consumer] Started listening for orphan cleanup jobs on queue: %s", produce.OrphanCleanupQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Storage Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Storage Consumer] Channel closed")
					return
				}
				c.handleOrphanCleanup(ctx, msg)
			}
		}
	}()

	return nil
}

// handleOrphanCleanup deletes the object named by the job unless an images
// row still references it. Malformed jobs are dropped and transient failures
// are requeued.
func (c *StorageCleanupConsumer) handleOrphanCleanup(ctx context.Context, msg amqp.Delivery) {
	var payload produce.OrphanCleanupMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Failed to unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	imageID, err := uuid.Parse(payload.ImageID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Invalid image ID %q", payload.ImageID)
		_ = msg.Nack(false, false)
		return
	}

	feedID, err := uuid.Parse(payload.FeedID)
	if err != nil || !ownedByFeed(payload.StorageKey, feedID) {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Storage key %q does not belong to feed %q", payload.StorageKey, payload.FeedID)
		_ = msg.Nack(false, false)
		return
	}

	exists, err := c.repository.ImageRepo.ExistsByID(ctx, imageID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Failed to look up image %s", imageID)
		_ = msg.Nack(false, true)
		return
	}
	if exists {
		c.infra.Logger.InfoWithContextf(ctx, "[Storage Consumer] Image %s has metadata, keeping %s", imageID, payload.StorageKey)
		_ = msg.Ack(false)
		return
	}

	err = c.infra.Storage.Delete(ctx, payload.StorageKey)
	switch {
	case err == nil:
		c.infra.Logger.InfoWithContextf(ctx, "[Storage Consumer] Removed orphaned object %s", payload.StorageKey)
		_ = msg.Ack(false)
	case errors.Is(err, infra.ErrObjectNotFound):
		c.infra.Logger.InfoWithContextf(ctx, "[Storage Consumer] Object %s already gone", payload.StorageKey)
		_ = msg.Ack(false)
	case errors.Is(err, infra.ErrInvalidStorageKey):
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Refusing to delete %q", payload.StorageKey)
		_ = msg.Nack(false, false)
	default:
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Failed to remove %s, requeueing", payload.StorageKey)
		_ = msg.Nack(false, true)
	}
}

// ownedByFeed reports whether key is a cleaned path under the feed's location.
func ownedByFeed(key string, feedID uuid.UUID) bool {
	if path.Clean(key) != key {
		return false
	}
	return strings.HasPrefix(key, feedID.String()+"/")
}
