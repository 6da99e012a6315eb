package controller

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tnqbao/gau-feed-service/entity"
	"github.com/tnqbao/gau-feed-service/http/controller/dto"
	"github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/infra/produce"
	"github.com/tnqbao/gau-feed-service/repository"
	"github.com/tnqbao/gau-feed-service/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultContentType = "application/octet-stream"

func (ctrl *Controller) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	feedID, ok := ctrl.parseUUIDParam(c, "feed_id", "Image")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Failed to get file from form data: %v", err)
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	imageID := uuid.New()
	storageKey := utils.ImageStorageKey(feedID, imageID, fileHeader.Filename)

	if _, err := ctrl.Repository.FeedRepo.FindByID(ctx, feedID); err != nil {
		ctrl.respondUploadError(c, err, feedID)
		return
	}

	reader, err := ctrl.storeUpload(ctx, fileHeader, feedID, storageKey, contentType)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to store '%s' for feed %s", fileHeader.Filename, feedID)
		utils.JSON500(c, "Failed to upload image")
		return
	}

	image := &entity.Image{
		ID:          imageID,
		FeedID:      feedID,
		Filename:    fileHeader.Filename,
		Path:        storageKey,
		ContentType: contentType,
		SizeBytes:   reader.BytesRead(),
		Checksum:    reader.Sum(),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	// The object is already written; the transaction only covers the feed recheck and the insert.
	err = ctrl.Repository.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.FeedRepo.FindByID(ctx, feedID); err != nil {
			return err
		}
		return txRepo.ImageRepo.Create(ctx, image)
	})
	if err != nil {
		ctrl.discardStoredImage(context.WithoutCancel(ctx), feedID, imageID, storageKey)
		ctrl.respondUploadError(c, err, feedID)
		return
	}

	attrs := metric.WithAttributes(attribute.String("content_type", contentType))
	ctrl.Infra.Metrics.ImagesUploaded.Add(ctx, 1, attrs)
	ctrl.Infra.Metrics.UploadBytes.Add(ctx, image.SizeBytes, attrs)

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Image] Uploaded '%s' (%d bytes) to feed %s as %s",
		image.Filename, image.SizeBytes, feedID, image.Path)
	utils.JSON200(c, dto.UploadImageResponseDTO{
		Message: "Image uploaded successfully",
		ImageID: image.ID,
	})
}

func (ctrl *Controller) storeUpload(ctx context.Context, fileHeader *multipart.FileHeader, feedID uuid.UUID, storageKey, contentType string) (*utils.ChecksumReader, error) {
	if err := ctrl.Infra.Storage.EnsureLocation(ctx, feedID.String()); err != nil {
		return nil, fmt.Errorf("ensure feed location: %w", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	reader := utils.NewChecksumReader(file)
	if err := ctrl.Infra.Storage.Put(ctx, storageKey, reader, fileHeader.Size, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	return reader, nil
}

func (ctrl *Controller) respondUploadError(c *gin.Context, err error, feedID uuid.UUID) {
	ctx := c.Request.Context()
	if errors.Is(err, repository.ErrNotFound) {
		ctrl.Infra.Logger.InfoWithContextf(ctx, "[Image] Upload rejected, feed %s not found", feedID)
		utils.JSON404(c, "Feed not found")
		return
	}

	ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to save image record for feed %s", feedID)
	utils.JSON500(c, "Failed to upload image")
}

// discardStoredImage removes an object whose metadata row was never
// committed. If storage refuses, the key is handed to the cleanup consumer.
func (ctrl *Controller) discardStoredImage(ctx context.Context, feedID, imageID uuid.UUID, storageKey string) {
	err := ctrl.Infra.Storage.Delete(ctx, storageKey)
	if err == nil || errors.Is(err, infra.ErrObjectNotFound) {
		return
	}
	ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Failed to remove uncommitted object %s: %v", storageKey, err)

	if ctrl.Infra.Produce == nil {
		ctrl.Infra.Metrics.OrphanedImages.Add(ctx, 1)
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Object %s left orphaned, no broker configured", storageKey)
		return
	}

	msg := produce.OrphanCleanupMessage{
		FeedID:     feedID.String(),
		ImageID:    imageID.String(),
		StorageKey: storageKey,
		Reason:     produce.OrphanReasonCommitFailed,
	}
	if err := ctrl.Infra.Produce.StorageService.PublishOrphanCleanup(ctx, msg); err != nil {
		ctrl.Infra.Metrics.OrphanedImages.Add(ctx, 1)
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to enqueue cleanup for %s", storageKey)
		return
	}
	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Image] Enqueued cleanup for %s", storageKey)
}

// ListImages returns an empty list for feeds that do not exist.
func (ctrl *Controller) ListImages(c *gin.Context) {
	ctx := c.Request.Context()

	feedID, ok := ctrl.parseUUIDParam(c, "feed_id", "Image")
	if !ok {
		return
	}

	images, err := ctrl.Repository.ImageRepo.FindByFeedID(ctx, feedID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to list images of feed %s", feedID)
		utils.JSON500(c, "Failed to list images")
		return
	}

	result := make([]dto.ImageSummaryDTO, 0, len(images))
	for _, img := range images {
		result = append(result, dto.ImageSummaryDTO{ID: img.ID, Filename: img.Filename})
	}
	utils.JSON200(c, result)
}

func (ctrl *Controller) DownloadImage(c *gin.Context) {
	ctx := c.Request.Context()

	feedID, ok := ctrl.parseUUIDParam(c, "feed_id", "Image")
	if !ok {
		return
	}
	imageID, ok := ctrl.parseUUIDParam(c, "image_id", "Image")
	if !ok {
		return
	}

	image, err := ctrl.Repository.ImageRepo.FindByFeedIDAndID(ctx, feedID, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to get image %s", imageID)
		utils.JSON500(c, "Failed to get image")
		return
	}

	content, err := ctrl.Infra.Storage.Get(ctx, image.Path)
	if err != nil {
		if errors.Is(err, infra.ErrObjectNotFound) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Image] Object %s missing for image %s", image.Path, imageID)
			utils.JSON404(c, "Image content not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to read object %s", image.Path)
		utils.JSON500(c, "Failed to read image")
		return
	}
	defer content.Close()

	contentType := image.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	headers := map[string]string{}
	if disposition := mime.FormatMediaType("inline", map[string]string{"filename": image.Filename}); disposition != "" {
		headers["Content-Disposition"] = disposition
	}
	if image.Checksum != "" {
		headers["ETag"] = `"` + image.Checksum + `"`
	}

	c.DataFromReader(http.StatusOK, image.SizeBytes, contentType, content, headers)
}
