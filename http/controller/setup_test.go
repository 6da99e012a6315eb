package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-feed-service/config"
	"github.com/tnqbao/gau-feed-service/http/controller"
	routes "github.com/tnqbao/gau-feed-service/http/route"
	"github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/repository"
	"github.com/tnqbao/gau-feed-service/repository/repositorytest"
	"gorm.io/gorm"
)

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	storage *infra.LocalStorage
	infra   *infra.Infra
}

func newTestEnv(t *testing.T, opts ...func(*infra.Infra)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := repositorytest.NewDB(t)
	storage, err := infra.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	metrics, err := infra.InitMetrics()
	require.NoError(t, err)

	inf := &infra.Infra{
		Logger:  infra.NewLoggerClient(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Metrics: metrics,
		Storage: storage,
	}
	for _, opt := range opts {
		opt(inf)
	}

	cfg := &config.Config{EnvConfig: &config.EnvConfig{}}
	ctrl := controller.NewController(cfg, inf, repository.InitRepository(db))

	return &testEnv{
		router:  routes.SetupRouter(ctrl),
		db:      db,
		storage: storage,
		infra:   inf,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(t *testing.T, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

func (e *testEnv) upload(t *testing.T, feedID, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return e.do(t, http.MethodPost, "/api/v1/feeds/"+feedID+"/images", &buf, mw.FormDataContentType())
}

type feedResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

func (e *testEnv) createFeed(t *testing.T, name string, description *string) feedResponse {
	t.Helper()
	payload := map[string]any{"name": name}
	if description != nil {
		payload["description"] = *description
	}
	w := e.postJSON(t, "/api/v1/feeds", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var feed feedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	return feed
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// failingDeleteStorage behaves like the wrapped storage except that Delete
// always fails.
type failingDeleteStorage struct {
	infra.ObjectStorage
}

func (failingDeleteStorage) Delete(context.Context, string) error {
	return errors.New("disk is read-only")
}

type recordingPublisher struct {
	messages []amqp.Publishing
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	p.messages = append(p.messages, msg)
	return nil
}

// withFeedCache attaches a Redis feed cache backed by miniredis.
func withFeedCache(t *testing.T) (*miniredis.Miniredis, func(*infra.Infra)) {
	t.Helper()
	server := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)

	cfg := &config.EnvConfig{}
	cfg.Redis.RedisHost = host
	cfg.Redis.RedisPort = port
	cfg.Redis.FeedTTL = time.Minute
	redis, err := infra.InitRedisClient(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redis.Close() })

	return server, func(i *infra.Infra) { i.Redis = redis }
}

// failingPutStorage rejects every write.
type failingPutStorage struct {
	infra.ObjectStorage
}

func (failingPutStorage) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("no space left on device")
}

// poolWatchingStorage records how many pooled connections are checked out
// while an object is being written.
type poolWatchingStorage struct {
	infra.ObjectStorage
	db         *gorm.DB
	inUseAtPut []int
}

func (s *poolWatchingStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.inUseAtPut = append(s.inUseAtPut, sqlDB.Stats().InUse)
	return s.ObjectStorage.Put(ctx, key, r, size, contentType)
}
