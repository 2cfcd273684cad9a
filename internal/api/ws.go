package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/targetrank-server/internal/scoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are delegated to the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressHub fans batch progress events out to websocket subscribers.
// Slow subscribers drop events rather than stalling the pipeline workers.
type ProgressHub struct {
	log *logrus.Logger

	mu   sync.RWMutex
	subs map[chan scoring.ProgressEvent]struct{}
}

// NewProgressHub creates an empty hub.
func NewProgressHub(logger *logrus.Logger) *ProgressHub {
	return &ProgressHub{
		log:  logger,
		subs: make(map[chan scoring.ProgressEvent]struct{}),
	}
}

// Publish delivers an event to every subscriber. Safe for concurrent use
// from pipeline workers.
func (h *ProgressHub) Publish(event scoring.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, drop the event.
		}
	}
}

func (h *ProgressHub) subscribe() chan scoring.ProgressEvent {
	sub := make(chan scoring.ProgressEvent, 64)
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *ProgressHub) unsubscribe(sub chan scoring.ProgressEvent) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// handleProgressStream upgrades the connection and streams batch progress
// events as JSON messages until the client disconnects.
func (s *Server) handleProgressStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Failed to upgrade progress stream connection")
		return
	}
	defer conn.Close()

	sub := s.progress.subscribe()
	defer s.progress.unsubscribe(sub)

	// Reader goroutine detects client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case event := <-sub:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
