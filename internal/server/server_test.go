package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagecompare/internal/bootstrap"
	"imagecompare/internal/config"
	"imagecompare/internal/events"
	"imagecompare/internal/handlers"
	"imagecompare/internal/models"
	"imagecompare/internal/queue"
	"imagecompare/internal/security"
	"imagecompare/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	handler  http.Handler
	key      string
	services *bootstrap.Services
	redis    *redis.Client
	progress *events.Publisher
}

const (
	testStream         = "comparison:generate"
	testProgressPrefix = "comparison:jobs:"
)

type body struct {
	RequestID string          `json:"request_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Error     *string         `json:"error"`
}

type comparisonBody struct {
	ID      string    `json:"id"`
	Dirname string    `json:"dirname"`
	Images  [2]string `json:"images"`
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func okTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"image A.png":                   "A",
		"image B.png":                   "B",
		"folder_a/image 1.png":          "1",
		"folder_a/image 2.png":          "2",
		"folder_a/image 3.png":          "3",
		"folder_b/folder_c/image 4.png": "4",
		"folder_b/folder_c/image 5.png": "5",
	})
}

func newTestAPI(t *testing.T, root string) *testAPI {
	t.Helper()
	return newTestAPIWithRedis(t, root, nil)
}

// newTestAPIWithJobs wires the job endpoints to an in-memory redis.
func newTestAPIWithJobs(t *testing.T, root string) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return newTestAPIWithRedis(t, root, client)
}

func newTestAPIWithRedis(t *testing.T, root string, client *redis.Client) *testAPI {
	t.Helper()
	ctx := context.Background()
	cfg := &config.AppConfig{
		Environment: "test",
		Database:    config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"},
		Catalog: config.CatalogConfig{
			Source:      config.SourceFilesystem,
			Root:        root,
			PublicRoute: "/static/images",
		},
		Votes:    config.VotesConfig{Policy: "append"},
		Security: config.SecurityConfig{JWTSecret: "test-secret", JWTTTL: time.Minute, KeyCacheSize: 8},
	}

	stores, err := bootstrap.OpenStores(ctx, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(stores.Close)

	cat, err := bootstrap.OpenCatalog(ctx, cfg)
	require.NoError(t, err)

	services, err := bootstrap.NewServices(cfg, stores, cat.Source, zerolog.Nop())
	require.NoError(t, err)
	services.Admins.WithHashParams(security.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})

	_, key, err := services.Admins.Provision(ctx)
	require.NoError(t, err)

	deps := handlers.Deps{
		Users:       services.Users,
		Comparisons: services.Comparisons,
		Generation:  services.Generation,
		Votes:       services.Votes,
		Admins:      services.Admins,
		Images:      cat.Images,
		DB:          stores,
	}
	api := &testAPI{key: key, services: services, redis: client}
	if client != nil {
		api.progress = events.NewPublisher(client, testProgressPrefix)
		deps.Jobs = queue.NewProducer(client, testStream)
		deps.Progress = api.progress
		deps.Cache = client
	}

	hs := handlers.NewHandlerSet(zerolog.Nop(), cfg, deps)
	api.handler = NewHTTPServer(cfg, zerolog.Nop(), hs).Handler()
	return api
}

func (a *testAPI) do(t *testing.T, method, target string, payload any, bearer string) (*httptest.ResponseRecorder, body) {
	t.Helper()
	var reader *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var b body
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	}
	return w, b
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, b := api.do(t, http.MethodGet, "/api/healthcheck", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, b.RequestID)
	assert.Equal(t, b.RequestID, w.Header().Get("X-Request-Id"))

	health := decode[map[string]string](t, b.Data)
	assert.Equal(t, "ok", health["database"])
	assert.Equal(t, "disabled", health["cache"])
}

func TestUnknownRouteAndPreflight(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, b := api.do(t, http.MethodGet, "/api/nonexistent", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, b.Error)
	assert.Equal(t, "Resource not found", *b.Error)

	w, _ = api.do(t, http.MethodOptions, "/api/v1/vote", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestGenerateRequiresAdmin(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, _ := api.do(t, http.MethodPost, "/api/v1/admin/comparison", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w, _ = api.do(t, http.MethodPost, "/api/v1/admin/comparison", nil, "not-a-key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComparisonVotingFlow(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, b := api.do(t, http.MethodGet, "/api/v1/comparison/dirnames", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, b = api.do(t, http.MethodPost, "/api/v1/admin/comparison", nil, api.key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	generated := decode[[]comparisonBody](t, b.Data)
	require.Len(t, generated, 10)
	assert.Equal(t, [2]string{"/static/images/image%20A.png", "/static/images/image%20B.png"}, generated[0].Images)

	w, b = api.do(t, http.MethodGet, "/api/v1/comparison/dirnames", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"", "folder_a", "folder_b/folder_c"}, decode[[]string](t, b.Data))

	w, b = api.do(t, http.MethodPost, "/api/v1/user", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	user := decode[map[string]any](t, b.Data)
	userID := user["id"].(string)
	assert.Equal(t, float64(0), user["comparisons"])

	next := "/api/v1/user/" + userID + "/comparison?" + url.Values{"dirname": {"folder_b/folder_c"}}.Encode()
	for i := 0; i < 2; i++ {
		w, b = api.do(t, http.MethodGet, next, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		c := decode[comparisonBody](t, b.Data)
		assert.Equal(t, "folder_b/folder_c", c.Dirname)

		w, b = api.do(t, http.MethodPost, "/api/v1/vote", map[string]string{
			"comparison_id": c.ID,
			"user_id":       userID,
			"vote_value":    c.Images[1],
		}, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		vote := decode[map[string]any](t, b.Data)
		assert.Equal(t, c.Images[1], vote["vote_value"])
		assert.Equal(t, "192.0.2.1", vote["client_ip"])
	}

	w, b = api.do(t, http.MethodGet, next, nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, b.Error)
	assert.Equal(t, "No `comparison` available for `user`", *b.Error)

	w, b = api.do(t, http.MethodGet, "/api/v1/user/"+userID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, b.Data)["comparisons"])
}

func TestVoteRejections(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, b := api.do(t, http.MethodPost, "/api/v1/admin/comparison", nil, api.key)
	require.Equal(t, http.StatusCreated, w.Code)
	generated := decode[[]comparisonBody](t, b.Data)

	_, b = api.do(t, http.MethodPost, "/api/v1/user", nil, "")
	userID := decode[map[string]any](t, b.Data)["id"].(string)

	// folder_a/image 1 vs 2; image 3 is in the category but not this comparison
	target := generated[2]
	require.Equal(t, "folder_a", target.Dirname)

	tests := []struct {
		name    string
		payload map[string]string
		status  int
		message string
	}{
		{
			name:    "sibling image",
			payload: map[string]string{"comparison_id": target.ID, "user_id": userID, "vote_value": "/static/images/folder_a/image%203.png"},
			status:  http.StatusUnprocessableEntity,
			message: "`image` not found for requested `comparison`",
		},
		{
			name:    "unknown comparison",
			payload: map[string]string{"comparison_id": "33993492-d8ce-4248-a93d-caf88baed82e", "user_id": userID, "vote_value": "equal"},
			status:  http.StatusUnprocessableEntity,
			message: "`comparison` with requested id not found",
		},
		{
			name:    "unknown user",
			payload: map[string]string{"comparison_id": target.ID, "user_id": "3fa85f64-5717-4562-b3fc-2c963f66afa6", "vote_value": "equal"},
			status:  http.StatusUnprocessableEntity,
			message: "`user` with requested id not found",
		},
		{
			name:    "malformed user id",
			payload: map[string]string{"comparison_id": target.ID, "user_id": "nope", "vote_value": "equal"},
			status:  http.StatusUnprocessableEntity,
			message: "`user_id` is not a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, b := api.do(t, http.MethodPost, "/api/v1/vote", tt.payload, "")
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, b.Error)
			assert.Equal(t, tt.message, *b.Error)
		})
	}

	w, _ = api.do(t, http.MethodPut, "/api/v1/vote", map[string]string{
		"comparison_id": target.ID, "user_id": userID, "vote_value": "different",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestUserLookups(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, _ := api.do(t, http.MethodGet, "/api/v1/user/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, b := api.do(t, http.MethodGet, "/api/v1/user/3fa85f64-5717-4562-b3fc-2c963f66afa6", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, b.Error)
	assert.Equal(t, "`user` with requested id not found", *b.Error)

	w, _ = api.do(t, http.MethodGet, "/api/v1/user/3fa85f64-5717-4562-b3fc-2c963f66afa6/comparison", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateFromTreeWithSingleFileCategory(t *testing.T) {
	api := newTestAPI(t, writeTree(t, map[string]string{
		"a/1.png":    "1",
		"a/2.png":    "2",
		"b/only.png": "x",
	}))

	w, b := api.do(t, http.MethodPost, "/api/v1/admin/comparison", nil, api.key)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, b.Error)
	assert.Contains(t, *b.Error, `"b"`)

	// the category before the failure stays committed
	w, b = api.do(t, http.MethodGet, "/api/v1/comparison/dirnames", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a"}, decode[[]string](t, b.Data))
}

func TestAdminTokenExchange(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, b := api.do(t, http.MethodPost, "/api/v1/admin/token", nil, api.key)
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode[map[string]any](t, b.Data)["token"].(string)

	w, _ = api.do(t, http.MethodPost, "/api/v1/admin/comparison", nil, token)
	assert.Equal(t, http.StatusCreated, w.Code)

	// no job queue configured
	w, _ = api.do(t, http.MethodPost, "/api/v1/admin/comparison/jobs", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServeImages(t *testing.T) {
	api := newTestAPI(t, okTree(t))

	w, _ := api.do(t, http.MethodGet, "/static/images/image%20A.png", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A", w.Body.String())

	w, _ = api.do(t, http.MethodGet, "/static/images/folder_b/folder_c/image%205.png", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Body.String())

	w, _ = api.do(t, http.MethodGet, "/static/images/missing.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.do(t, http.MethodGet, "/static/images/folder_a", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type jobBody struct {
	JobID    string `json:"job_id"`
	StreamID string `json:"stream_id"`
}

func TestGenerationJobLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newTestAPIWithJobs(t, okTree(t))

	w, b := api.do(t, http.MethodGet, "/api/healthcheck", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, b.Data)["cache"])

	w, b = api.do(t, http.MethodPost, "/api/v1/admin/comparison/jobs", nil, api.key)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	job := decode[jobBody](t, b.Data)
	require.NotEmpty(t, job.JobID)

	w, b = api.do(t, http.MethodGet, "/api/v1/admin/jobs/"+job.JobID, nil, api.key)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.JobStageQueued, decode[models.JobEvent](t, b.Data).Stage)

	msgs, err := api.redis.XRange(ctx, testStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, job.StreamID, msgs[0].ID)
	assert.Equal(t, job.JobID, msgs[0].Values["jobId"])

	// what the worker does with the entry
	processor := tasks.NewProcessor(api.services.Generation, api.progress, zerolog.Nop())
	require.NoError(t, processor.Handle(ctx, msgs[0]))

	w, b = api.do(t, http.MethodGet, "/api/v1/admin/jobs/"+job.JobID, nil, api.key)
	require.Equal(t, http.StatusOK, w.Code)
	final := decode[models.JobEvent](t, b.Data)
	assert.Equal(t, models.JobStageCompleted, final.Stage)
	assert.Equal(t, 10, final.Comparisons)

	w, b = api.do(t, http.MethodGet, "/api/v1/comparison/dirnames", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"", "folder_a", "folder_b/folder_c"}, decode[[]string](t, b.Data))
}

func TestJobStatusUnknownJob(t *testing.T) {
	api := newTestAPIWithJobs(t, okTree(t))

	w, b := api.do(t, http.MethodGet, "/api/v1/admin/jobs/does-not-exist", nil, api.key)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, b.Error)
	assert.Equal(t, "Resource not found", *b.Error)

	w, _ = api.do(t, http.MethodGet, "/api/v1/admin/jobs/does-not-exist", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWatchJobClosesOnTerminalStage(t *testing.T) {
	ctx := context.Background()
	api := newTestAPIWithJobs(t, okTree(t))
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	w, b := api.do(t, http.MethodPost, "/api/v1/admin/comparison/jobs", nil, api.key)
	require.Equal(t, http.StatusAccepted, w.Code)
	job := decode[jobBody](t, b.Data)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+api.key)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/admin/jobs/" + job.JobID + "/watch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var event models.JobEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.JobStageQueued, event.Stage)

	require.NoError(t, api.progress.Publish(ctx, models.JobEvent{JobID: job.JobID, Stage: models.JobStageStarted}))
	require.NoError(t, api.progress.Publish(ctx, models.JobEvent{JobID: job.JobID, Stage: models.JobStageCompleted, Comparisons: 10}))

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.JobStageStarted, event.Stage)
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.JobStageCompleted, event.Stage)
	assert.Equal(t, 10, event.Comparisons)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestWatchJobAlreadyFinished(t *testing.T) {
	ctx := context.Background()
	api := newTestAPIWithJobs(t, okTree(t))
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	require.NoError(t, api.progress.Publish(ctx, models.JobEvent{JobID: "done", Stage: models.JobStageFailed, Error: "boom"}))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+api.key)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/admin/jobs/done/watch", header)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var event models.JobEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.JobStageFailed, event.Stage)
	assert.Equal(t, "boom", event.Error)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
