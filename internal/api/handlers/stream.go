package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StreamHandler pushes filtered gauge snapshots over a websocket.
type StreamHandler struct {
	registry  *metrics.Registry
	interval  time.Duration
	writeWait time.Duration
	upgrader  websocket.Upgrader
}

func NewStreamHandler(registry *metrics.Registry, interval, writeWait time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = time.Second
	}
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	return &StreamHandler{
		registry:  registry,
		interval:  interval,
		writeWait: writeWait,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("websocket")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	h.HandleWebSocket(conn, FilterFromRequest(r))
}

// HandleWebSocket sends a snapshot immediately and then on every interval
// until the peer goes away.
func (h *StreamHandler) HandleWebSocket(conn *websocket.Conn, filter Filter) {
	log := logger.WithComponent("websocket")
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("Connection closed")
				}
				return
			}
		}
	}()

	send := func() bool {
		if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
			return false
		}
		if err := conn.WriteJSON(WSMessage{
			Type:    "snapshot",
			Payload: filter.Apply(h.registry.Snapshot()),
		}); err != nil {
			log.Debug().Err(err).Msg("Snapshot send failed")
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
