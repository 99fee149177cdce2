package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roomchat-service/internal/models"
	"roomchat-service/internal/observability"
	"roomchat-service/internal/repositories"
)

// UserHandler manages the user endpoints.
type UserHandler struct {
	userRepo repositories.UserRepository
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// ListUsers returns every known user with its canonical id.
func (h *UserHandler) ListUsers(c *gin.Context) {
	if _, ok := principalOrAbort(c); !ok {
		return
	}

	users, err := h.userRepo.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteUser removes a user row. Only the user themselves or an admin may
// delete; a username that resolves to no row cannot be authorized and is
// reported as not found.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if principal.Username != username && !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		return
	}

	user, err := h.userRepo.FindByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
		return
	}

	if err := h.userRepo.DeleteUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}

	_ = observability.PublishEvent(c.Request.Context(), "user_events", observability.EventEnvelope{
		Stream: "user_events",
		Event:  "user_deleted",
		Payload: map[string]interface{}{
			"username":   username,
			"user_id":    user.UserID,
			"deleted_by": principal.Username,
		},
	}, observability.EventHeaders(requestIDFromContext(c), ""))

	c.Status(http.StatusNoContent)
}
