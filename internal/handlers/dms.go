package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roomchat-service/internal/models"
	"roomchat-service/internal/repositories"
)

// DMHandler manages the DM roster endpoint.
type DMHandler struct {
	rosterRepo repositories.RosterRepository
}

// NewDMHandler builds a DMHandler.
func NewDMHandler(rosterRepo repositories.RosterRepository) *DMHandler {
	return &DMHandler{rosterRepo: rosterRepo}
}

// ListDMThreads returns the caller's DM threads, newest activity first. An
// empty list is a plain empty result, not an error.
func (h *DMHandler) ListDMThreads(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	threads, err := h.rosterRepo.ListDMThreadsForUser(c.Request.Context(), principal.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dm threads"})
		return
	}
	if threads == nil {
		threads = []models.DMView{}
	}

	c.JSON(http.StatusOK, gin.H{"threads": threads})
}
