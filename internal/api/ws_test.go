package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestWSProgressHandler_StreamsProgressUntilComplete(t *testing.T) {
	eng := newTestEngine()
	r := newTestRouter(eng)
	r.GET("/evaluations/:runId/stream", WSProgressHandler(eng))

	runID := startEvaluation(t, r, "agent-ws")

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/evaluations/" + runID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Progress struct {
			ItemsCompleted int `json:"items_completed"`
		} `json:"progress"`
		IsComplete bool `json:"is_complete"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("expected a progress frame, got error: %v", err)
	}
	if msg.IsComplete {
		t.Errorf("expected a freshly started run not to be complete")
	}
}

func TestWSProgressHandler_UnknownRunFailsUpgrade(t *testing.T) {
	eng := newTestEngine()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/evaluations/:runId/stream", WSProgressHandler(eng))

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/evaluations/ghost-run/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected the handshake to fail for an unknown run")
	}
	if resp != nil && resp.StatusCode < 400 {
		t.Errorf("expected an error status for an unknown run, got %d", resp.StatusCode)
	}
}
