package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mse-engine/internal/config"
	redisdb "mse-engine/internal/redis"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func setupTestJWT(secret, agentID, role string, exp time.Duration) string {
	token, _ := GenerateJWT(secret, agentID, role, exp)
	return token
}

func setupTestRedis(t *testing.T) *redis.Client {
	cfg := &config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.DB = 15
	rdb := redisdb.NewClient(cfg)
	if err := rdb.Ping(rdb.Context()).Err(); err != nil {
		t.Skipf("no redis available at %s: %v", cfg.Redis.Addr, err)
	}
	return rdb
}

func TestMiddleware_MissingHeader(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	rdb := setupTestRedis(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg, rdb, false))
	r.GET("/test", func(c *gin.Context) { c.String(200, "OK") })
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	rdb := setupTestRedis(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg, rdb, false))
	r.GET("/test", func(c *gin.Context) { c.String(200, "OK") })
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer not.a.valid.jwt")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid JWT, got %d", w.Code)
	}
}

func TestMiddleware_SessionInvalid(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	rdb := setupTestRedis(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg, rdb, false))
	r.GET("/test", func(c *gin.Context) { c.String(200, "OK") })
	token := setupTestJWT(cfg.Server.JWTSecret, "agent-123", RoleAgent, time.Minute)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	// No session recorded in Redis for this token, so it's rejected as stale.
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for session error, got %d", w.Code)
	}
}

func TestMiddleware_NonOperatorForbidden(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	rdb := setupTestRedis(t)
	agentID := "agent-123"
	token := setupTestJWT(cfg.Server.JWTSecret, agentID, RoleAgent, time.Minute)
	_ = SetSession(rdb, agentID, token, time.Minute)
	defer DeleteSession(rdb, agentID)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg, rdb, true)) // requireOperator = true
	r.GET("/test", func(c *gin.Context) { c.String(200, "OK") })
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-operator, got %d", w.Code)
	}
}

func TestMiddleware_OperatorAllowed(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"
	rdb := setupTestRedis(t)
	agentID := "agent-222"
	token := setupTestJWT(cfg.Server.JWTSecret, agentID, RoleOperator, time.Minute)
	_ = SetSession(rdb, agentID, token, time.Minute)
	defer DeleteSession(rdb, agentID)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg, rdb, true)) // requireOperator = true
	r.GET("/test", func(c *gin.Context) { c.String(200, "OK") })
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for operator, got %d", w.Code)
	}
}
