package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roomchat-service/internal/models"
	"roomchat-service/internal/repositories"
)

// ChannelHandler manages the channel roster endpoint.
type ChannelHandler struct {
	rosterRepo repositories.RosterRepository
}

// NewChannelHandler builds a ChannelHandler.
func NewChannelHandler(rosterRepo repositories.RosterRepository) *ChannelHandler {
	return &ChannelHandler{rosterRepo: rosterRepo}
}

// ListChannels returns the deduplicated channel roster.
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	if _, ok := principalOrAbort(c); !ok {
		return
	}

	includeLocked := c.Query("includeLocked") == "true"

	channels, err := h.rosterRepo.ListChannels(c.Request.Context(), includeLocked)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load channels"})
		return
	}
	if channels == nil {
		channels = []models.ChannelMeta{}
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}
