package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"roomchat-service/internal/auth"
	"roomchat-service/internal/keys"
	"roomchat-service/internal/models"
	"roomchat-service/internal/observability"
)

// ThreadWebSocketHandler subscribes clients to live message events for one
// thread.
type ThreadWebSocketHandler struct {
	hub      *Hub
	verifier *auth.Verifier
}

// NewThreadWebSocketHandler constructs a ThreadWebSocketHandler.
func NewThreadWebSocketHandler(hub *Hub, verifier *auth.Verifier) *ThreadWebSocketHandler {
	return &ThreadWebSocketHandler{hub: hub, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client with the hub.
// The thread is addressed by a channel or dmId query parameter; DM
// subscriptions require the principal to be a thread member.
func (h *ThreadWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("roomchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	principal, err := h.authenticate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	threadID, kind, ok := h.resolveThread(c, principal)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestID(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		Username:    principal.Username,
		IP:          observability.ClientIP(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(threadID, conn, info)

	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	_ = observability.PublishEvent(ctx, wsRoutingKey(kind), observability.EventEnvelope{
		Stream:  "ws_events",
		Event:   "ws_connect",
		Payload: wsEventPayload(kind, threadID, "ws_connect", info, 0, ""),
	}, observability.EventHeaders(requestID, traceID))

	// Keep the connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(threadID, conn)
			observability.DecWSActive(kind)
			observability.IncWSEvent(kind, "ws_disconnect")
			_ = observability.PublishEvent(ctx, wsRoutingKey(kind), observability.EventEnvelope{
				Stream:  "ws_events",
				Event:   "ws_disconnect",
				Payload: wsEventPayload(kind, threadID, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.EventHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent(kind, "ws_error")
				}
				return
			}
		}
	}()
}

func (h *ThreadWebSocketHandler) authenticate(header string) (models.Principal, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return models.Principal{}, auth.ErrMissingToken
	}
	return h.verifier.Verify(parts[1])
}

func (h *ThreadWebSocketHandler) resolveThread(c *gin.Context, principal models.Principal) (string, string, bool) {
	channel := c.Query("channel")
	dmID := c.Query("dmId")

	switch {
	case channel != "" && dmID == "":
		return channel, "channel", true
	case dmID != "" && channel == "":
		a, b, ok := keys.DMMembers(dmID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dm id"})
			return "", "", false
		}
		if !strings.EqualFold(principal.Username, a) && !strings.EqualFold(principal.Username, b) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a thread member"})
			return "", "", false
		}
		return keys.DMThreadID(a, b), "dm", true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of channel or dmId is required"})
		return "", "", false
	}
}

func wsEventPayload(kind, threadID, event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"thread_id":   threadID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"username": info.Username,
			"ip":       info.IP,
		},
	}
}
