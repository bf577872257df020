package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server binds to loopback by default; origin filtering is
		// left to deployments that expose it.
		return true
	},
}

// handleStream upgrades to WebSocket and replays then follows a run's
// progress events. ?run= selects a run; without it the active run is
// streamed.
func (s *Server) handleStream(c *gin.Context) {
	entry, ok := s.runs.get(c.Query("run"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such run"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	s.metrics.IncWSConnections()
	defer s.metrics.DecWSConnections()

	run := entry.run
	s.send(conn, map[string]interface{}{
		"type":  "system",
		"run":   run.ID(),
		"state": string(run.State()),
	})

	events, unsubscribe := entry.feed.subscribe()
	defer unsubscribe()

	// Reads only to notice the peer leaving; the stream is one-way.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, open := <-events:
			if !open {
				s.send(conn, map[string]interface{}{
					"type":  "complete",
					"run":   run.ID(),
					"state": string(run.State()),
				})
				return
			}
			if err := s.send(conn, map[string]interface{}{
				"type":  "progress",
				"run":   run.ID(),
				"event": ev,
			}); err != nil {
				return
			}
		case <-clientGone:
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, data map[string]interface{}) error {
	return conn.WriteJSON(data)
}
