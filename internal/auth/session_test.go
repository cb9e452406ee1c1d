package auth

import (
	"testing"
	"time"

	"mse-engine/internal/config"
	redisdb "mse-engine/internal/redis"
)

func TestSessionSetGetDelete(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.DB = 15
	rdb := redisdb.NewClient(cfg)

	if err := rdb.Ping(rdb.Context()).Err(); err != nil {
		t.Skipf("no redis available at %s: %v", cfg.Redis.Addr, err)
	}

	agentID := "agent-session-test"
	token := "session_test_token"
	duration := 2 * time.Second

	if err := SetSession(rdb, agentID, token, duration); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	gotToken, err := GetSession(rdb, agentID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if gotToken != token {
		t.Errorf("expected token %q, got %q", token, gotToken)
	}

	if err := DeleteSession(rdb, agentID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if _, err := GetSession(rdb, agentID); err == nil {
		t.Errorf("expected error for deleted session, got nil")
	}
}
