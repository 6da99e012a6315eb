package controller_test

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/infra/produce"
	"github.com/tnqbao/gau-feed-service/repository"
)

type uploadResponse struct {
	Message string `json:"message"`
	ImageID string `json:"image_id"`
}

type imageSummary struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

func TestUploadImageToUnknownFeed(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, uuid.NewString(), "cat.png", "meow")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Feed not found", decode[map[string]any](t, w)["message"])

	entries, err := os.ReadDir(env.storage.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadImageAfterFeedDeletedIgnoresCache(t *testing.T) {
	server, withCache := withFeedCache(t)
	env := newTestEnv(t, withCache)
	feed := env.createFeed(t, "Pets", nil)
	require.True(t, server.Exists(infra.FeedCacheKey(feed.ID)))

	require.NoError(t, env.db.Exec("DELETE FROM feeds").Error)

	w := env.upload(t, feed.ID, "cat.png", "meow")
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Equal(t, "Feed not found", decode[map[string]any](t, w)["message"])

	entries, err := os.ReadDir(env.storage.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)

	var count int64
	require.NoError(t, env.db.Table("images").Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadImageWritesOutsideTransaction(t *testing.T) {
	var watcher *poolWatchingStorage
	env := newTestEnv(t, func(i *infra.Infra) {
		watcher = &poolWatchingStorage{ObjectStorage: i.Storage}
		i.Storage = watcher
	})
	watcher.db = env.db
	feed := env.createFeed(t, "Pets", nil)

	w := env.upload(t, feed.ID, "cat.png", "meow")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, []int{0}, watcher.inUseAtPut, "a pooled connection was held while writing the object")
}

func TestUploadStorageFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t, func(i *infra.Infra) {
		i.Storage = failingPutStorage{ObjectStorage: i.Storage}
	})
	feed := env.createFeed(t, "Pets", nil)

	w := env.upload(t, feed.ID, "cat.png", "meow")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload image", decode[map[string]any](t, w)["message"])

	var count int64
	require.NoError(t, env.db.Table("images").Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadThenListImages(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)

	w := env.upload(t, feed.ID, "cat.png", "meow")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	uploaded := decode[uploadResponse](t, w)
	assert.Equal(t, "Image uploaded successfully", uploaded.Message)
	_, err := uuid.Parse(uploaded.ImageID)
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/api/v1/feeds/"+feed.ID+"/images", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	images := decode[[]imageSummary](t, w)
	require.Len(t, images, 1)
	assert.Equal(t, uploaded.ImageID, images[0].ID)
	assert.Equal(t, "cat.png", images[0].Filename)

	stored := filepath.Join(env.storage.Root(), feed.ID, uploaded.ImageID+".png")
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))

	record, err := repository.InitRepository(env.db).ImageRepo.FindByID(t.Context(), uuid.MustParse(uploaded.ImageID))
	require.NoError(t, err)
	assert.Zero(t, record.CreatedAt.Nanosecond()%int(time.Microsecond))
}

func TestUploadSameFilenameKeepsBothFiles(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)

	first := decode[uploadResponse](t, env.upload(t, feed.ID, "cat.png", "first"))
	second := decode[uploadResponse](t, env.upload(t, feed.ID, "cat.png", "second"))
	require.NotEqual(t, first.ImageID, second.ImageID)

	w := env.do(t, http.MethodGet, "/api/v1/feeds/"+feed.ID+"/images", nil, "")
	images := decode[[]imageSummary](t, w)
	require.Len(t, images, 2)
	assert.ElementsMatch(t, []string{first.ImageID, second.ImageID}, []string{images[0].ID, images[1].ID})
	for _, img := range images {
		assert.Equal(t, "cat.png", img.Filename)
	}

	for id, want := range map[string]string{first.ImageID: "first", second.ImageID: "second"} {
		w := env.do(t, http.MethodGet, "/api/v1/feeds/"+feed.ID+"/images/"+id, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestUploadTraversalFilenameStaysInFeedDirectory(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)

	w := env.upload(t, feed.ID, "../../escape.png", "x")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := decode[uploadResponse](t, w)

	_, err := os.Stat(filepath.Join(env.storage.Root(), feed.ID, uploaded.ImageID+".png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(env.storage.Root()), "escape.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadImageWithoutFile(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)

	w := env.do(t, http.MethodPost, "/api/v1/feeds/"+feed.ID+"/images", strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImageInvalidFeedID(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "nope", "cat.png", "meow")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListImagesUnknownFeedReturnsEmptyList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/feeds/"+uuid.NewString()+"/images", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestDownloadImage(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)
	uploaded := decode[uploadResponse](t, env.upload(t, feed.ID, "cat.png", "meow"))

	w := env.do(t, http.MethodGet, "/api/v1/feeds/"+feed.ID+"/images/"+uploaded.ImageID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "meow", w.Body.String())
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename=cat.png`)
	assert.NotEmpty(t, w.Header().Get("ETag"))
}

func TestDownloadImageNotFound(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)
	other := env.createFeed(t, "Other", nil)
	uploaded := decode[uploadResponse](t, env.upload(t, feed.ID, "cat.png", "meow"))

	w := env.do(t, http.MethodGet, "/api/v1/feeds/"+feed.ID+"/images/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/feeds/"+other.ID+"/images/"+uploaded.ImageID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, os.Remove(filepath.Join(env.storage.Root(), feed.ID, uploaded.ImageID+".png")))
	w = env.do(t, http.MethodGet, "/api/v1/feeds/"+feed.ID+"/images/"+uploaded.ImageID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadCommitFailureRemovesStoredFile(t *testing.T) {
	env := newTestEnv(t)
	feed := env.createFeed(t, "Pets", nil)
	require.NoError(t, env.db.Exec("DROP TABLE images").Error)

	w := env.upload(t, feed.ID, "cat.png", "meow")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	entries, err := os.ReadDir(filepath.Join(env.storage.Root(), feed.ID))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadCommitFailureEnqueuesCleanupWhenDeleteFails(t *testing.T) {
	publisher := &recordingPublisher{}
	env := newTestEnv(t, func(i *infra.Infra) {
		i.Storage = failingDeleteStorage{ObjectStorage: i.Storage}
		i.Produce = &produce.Produce{StorageService: produce.NewStorageService(publisher)}
	})
	feed := env.createFeed(t, "Pets", nil)
	require.NoError(t, env.db.Exec("DROP TABLE images").Error)

	w := env.upload(t, feed.ID, "cat.png", "meow")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	require.Len(t, publisher.messages, 1)
	var msg produce.OrphanCleanupMessage
	require.NoError(t, json.Unmarshal(publisher.messages[0].Body, &msg))
	assert.Equal(t, feed.ID, msg.FeedID)
	assert.Equal(t, produce.OrphanReasonCommitFailed, msg.Reason)
	assert.True(t, strings.HasPrefix(msg.StorageKey, feed.ID+"/"))

	rc, err := env.storage.Get(t.Context(), msg.StorageKey)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "meow", string(data))
}
