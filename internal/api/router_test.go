package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mse-engine/internal/config"
)

func TestSetupRouter_UnauthenticatedRoutesAreReachable(t *testing.T) {
	rdb := setupAPITestRedis(t)
	operators := newOperatorStore(t)
	eng := newTestEngine()
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"

	r := SetupRouter(cfg, rdb, eng, nil, operators)

	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest("GET", "/health", nil))
	if health.Code != http.StatusOK {
		t.Errorf("expected /health to be reachable without auth, got %d", health.Code)
	}

	cfgResp := httptest.NewRecorder()
	r.ServeHTTP(cfgResp, httptest.NewRequest("GET", "/config", nil))
	if cfgResp.Code != http.StatusOK {
		t.Errorf("expected /config to be reachable without auth, got %d", cfgResp.Code)
	}
}

func TestSetupRouter_ProtectedRoutesRejectMissingAuth(t *testing.T) {
	rdb := setupAPITestRedis(t)
	operators := newOperatorStore(t)
	eng := newTestEngine()
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"

	r := SetupRouter(cfg, rdb, eng, nil, operators)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/v1/evaluations", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an unauthenticated evaluation start, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSetupRouter_CompareAgentsRequiresOperatorRole(t *testing.T) {
	rdb := setupAPITestRedis(t)
	operators := newOperatorStore(t)
	eng := newTestEngine()
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "secret"

	r := SetupRouter(cfg, rdb, eng, nil, operators)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/agents/compare", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without any token on the elevated compare route, got %d: %s", w.Code, w.Body.String())
	}
}
