package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roomchat-service/internal/keys"
	"roomchat-service/internal/models"
	"roomchat-service/internal/observability"
	"roomchat-service/internal/repositories"
	"roomchat-service/internal/ws"
)

// MessageHandler manages the message endpoints.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	hub         *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo, hub: hub}
}

// ListMessages returns a thread's messages in chronological order.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	address, ok := threadAddressFor(c, principal, c.Query("channel"), c.Query("dmId"))
	if !ok {
		return
	}

	msgs, err := h.messageRepo.List(c.Request.Context(), address, limit)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidThread) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage stores a message and broadcasts it to thread subscribers.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	var req struct {
		Kind    string `json:"kind" binding:"required"`
		Channel string `json:"channel"`
		DMID    string `json:"dmId"`
		To      string `json:"to"`
		Text    string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var address repositories.ThreadAddress
	switch models.MessageKind(req.Kind) {
	case models.KindChannel:
		if req.Channel == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
			return
		}
		address = repositories.ThreadAddress{Kind: models.KindChannel, Channel: req.Channel}

	case models.KindDM:
		dmID := req.DMID
		if dmID == "" && req.To != "" {
			dmID = keys.DMThreadID(principal.Username, req.To)
		}
		address, ok = threadAddressFor(c, principal, "", dmID)
		if !ok {
			return
		}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be channel or dm"})
		return
	}

	msg, err := h.messageRepo.Send(c.Request.Context(), address, principal.Username, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrWriteConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "message write conflict, retry"})
		case errors.Is(err, repositories.ErrInvalidThread):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread address"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastMessage(msg)
	}
	h.publishMessageEvent(c, msg)

	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) publishMessageEvent(c *gin.Context, msg models.Message) {
	routingKey := "message_events.channels"
	if msg.Kind == models.KindDM {
		routingKey = "message_events.dms"
	}

	_ = observability.PublishEvent(c.Request.Context(), routingKey, observability.EventEnvelope{
		Stream: "message_events",
		Event:  "message_sent",
		Payload: map[string]interface{}{
			"message": map[string]interface{}{
				"kind":       string(msg.Kind),
				"thread_id":  msg.ThreadID(),
				"message_id": msg.MessageID,
				"author":     msg.Author,
				"created_at": msg.CreatedAt,
			},
		},
	}, observability.EventHeaders(requestIDFromContext(c), ""))
}
