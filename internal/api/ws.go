package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mse-engine/internal/engine"
)

var progressUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type safeProgressConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeProgressConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSProgressHandler is GET /evaluations/:runId/stream: a push channel for
// getProgress() so a caller doesn't have to poll during a long adaptive
// run, adapted from the teacher's token-streaming WebSocket into a
// progress-streaming one.
func WSProgressHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := eng.ResumeEvaluation(c.Request.Context(), c.Param("runId"))
		if err != nil {
			writeEngineError(c, err)
			return
		}

		rawConn, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		conn := &safeProgressConn{conn: rawConn}
		defer conn.conn.Close()

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-ticker.C:
				progress := sess.GetProgress()
				if err := conn.WriteJSON(gin.H{"progress": progress, "is_complete": sess.IsComplete()}); err != nil {
					return
				}
				if sess.IsComplete() {
					return
				}
			}
		}
	}
}
