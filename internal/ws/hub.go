package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomchat-service/internal/models"
	"roomchat-service/internal/observability"
)

// Hub maintains active websocket rooms, one per message thread. Rooms are
// keyed by thread id: a channel name for channel threads, the canonical
// DM#low#high identifier for DM threads.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		logger:   logger,
	}
}

// AddClient registers a websocket connection to a thread room.
func (h *Hub) AddClient(threadID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[threadID]; !ok {
		h.rooms[threadID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[threadID][conn] = true
	if _, ok := h.connInfo[threadID]; !ok {
		h.connInfo[threadID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[threadID][conn] = info
}

// RemoveClient removes a websocket connection from a thread room.
func (h *Hub) RemoveClient(threadID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[threadID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, threadID)
		}
	}
	if infos, ok := h.connInfo[threadID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, threadID)
		}
	}
}

// BroadcastMessage sends a stored message to every client subscribed to
// its thread.
func (h *Hub) BroadcastMessage(msg models.Message) {
	threadID := msg.ThreadID()

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[threadID]))
	for conn := range h.rooms[threadID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.ThreadEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			if h.logger != nil {
				h.logger.Warn("websocket write error", zap.String("thread", threadID), zap.Error(err))
			}
			conn.Close()
			h.RemoveClient(threadID, conn)
			h.publishWSError(threadID, conn, err)
		}
	}
}

func (h *Hub) publishWSError(threadID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(threadID, conn)
	if !ok {
		return
	}
	kind := threadKind(threadID)

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"thread_id":   threadID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"username": info.Username,
			"ip":       info.IP,
		},
	}

	headers := observability.EventHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		Stream:  "ws_events",
		Event:   "ws_error",
		Payload: payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(threadID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[threadID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
