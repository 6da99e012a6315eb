package controller

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tnqbao/gau-feed-service/entity"
	"github.com/tnqbao/gau-feed-service/http/controller/dto"
	"github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/repository"
	"github.com/tnqbao/gau-feed-service/utils"
)

func (ctrl *Controller) CreateFeed(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateFeedRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Feed] Invalid create request: %v", err)
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	feed := &entity.Feed{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := ctrl.Repository.FeedRepo.Create(ctx, feed); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Feed] Failed to create feed '%s'", req.Name)
		utils.JSON500(c, "Failed to create feed")
		return
	}

	ctrl.Infra.Metrics.FeedsCreated.Add(ctx, 1)
	ctrl.cacheFeed(ctx, feed)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Feed] Created feed %s ('%s')", feed.ID, feed.Name)
	utils.JSON200(c, feed)
}

func (ctrl *Controller) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()

	feedID, ok := ctrl.parseUUIDParam(c, "feed_id", "Feed")
	if !ok {
		return
	}

	feed, err := ctrl.findFeed(ctx, feedID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ctrl.Infra.Logger.InfoWithContextf(ctx, "[Feed] Feed %s not found", feedID)
			utils.JSON404(c, "Feed not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Feed] Failed to get feed %s", feedID)
		utils.JSON500(c, "Failed to get feed")
		return
	}

	utils.JSON200(c, feed)
}

// findFeed reads through the Redis cache when one is configured. Cache
// failures are logged and fall back to the database. A cached feed can
// outlive its row by up to REDIS_FEED_TTL, so writers must not rely on it.
func (ctrl *Controller) findFeed(ctx context.Context, feedID uuid.UUID) (*entity.Feed, error) {
	if ctrl.Infra.Redis != nil {
		var cached entity.Feed
		err := ctrl.Infra.Redis.GetFeed(ctx, feedID.String(), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, infra.ErrCacheMiss) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Feed] Cache read failed for %s: %v", feedID, err)
		}
	}

	feed, err := ctrl.Repository.FeedRepo.FindByID(ctx, feedID)
	if err != nil {
		return nil, err
	}

	ctrl.cacheFeed(ctx, feed)
	return feed, nil
}

func (ctrl *Controller) cacheFeed(ctx context.Context, feed *entity.Feed) {
	if ctrl.Infra.Redis == nil {
		return
	}
	if err := ctrl.Infra.Redis.SetFeed(ctx, feed.ID.String(), feed); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Feed] Cache write failed for %s: %v", feed.ID, err)
	}
}
