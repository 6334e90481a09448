package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-hexagonal-users/config"
	"github.com/oksasatya/go-hexagonal-users/internal/container"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/cache"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/memory"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/notification"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:              "users-test",
		Env:                  "test",
		StorageDriver:        config.StorageMemory,
		UserCacheTTL:         time.Minute,
		CreateUserRateLimit:  2,
		CreateUserRateWindow: time.Minute,
		DebugMetricsEnabled:  true,
	}
}

func TestBuildUserRepository(t *testing.T) {
	t.Cleanup(container.Reset)
	logger, _ := test.NewNullLogger()

	container.Reset()
	_, ok := BuildUserRepository(testConfig(), logger).(*memory.UserRepository)
	assert.True(t, ok, "memory without redis")

	mr := miniredis.RunT(t)
	container.SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	_, ok = BuildUserRepository(testConfig(), logger).(*cache.UserRepository)
	assert.True(t, ok, "cache wraps the store when redis is set")

	cfg := testConfig()
	cfg.StorageDriver = config.StoragePostgres
	container.SetRedis(nil)
	_, ok = BuildUserRepository(cfg, logger).(*memory.UserRepository)
	assert.True(t, ok, "falls back to memory without a pool")
}

func TestBuildNotifier(t *testing.T) {
	t.Cleanup(container.Reset)
	container.Reset()
	logger, _ := test.NewNullLogger()

	cfg := testConfig()
	cfg.MailSendEnabled = true
	_, ok := BuildNotifier(cfg, logger).(*notification.LogNotifier)
	assert.True(t, ok, "no publisher means log only")
}

func newServer(t *testing.T) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Cleanup(container.Reset)
	container.Reset()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger, _ := test.NewNullLogger()
	container.SetConfig(testConfig())
	container.SetLogger(logger)
	container.SetRedis(rdb)

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg)
	reg.RegisterAll()
	return engine, mr
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUserRoutesEndToEnd(t *testing.T) {
	engine, mr := newServer(t)

	w := call(engine, http.MethodPost, "/api/users", `{"name":"John Doe","email":"john@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, mr.Exists("user:by_id:1"))

	w = call(engine, http.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Data.ID)
	assert.Equal(t, "john@example.com", body.Data.Email)

	w = call(engine, http.MethodPost, "/api/users", `{"name":"John Again","email":"JOHN@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(engine, http.MethodPost, "/api/users", `{"name":"Jane","email":"jane@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "limit is two creates per window")
	assert.True(t, mr.Exists("rl:path:/api/users:ip:192.0.2.1"), "keyed by socket peer, not X-Forwarded-For")

	w = call(engine, http.MethodGet, "/api/users/search?q=john", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndDebugRoutes(t *testing.T) {
	engine, _ := newServer(t)

	w := call(engine, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","modules":["users","debug"]}`, w.Body.String())

	w = call(engine, http.MethodGet, "/api/debug/vars", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
	assert.Contains(t, w.Body.String(), "users_created_total")
}
