package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roomchat-service/internal/keys"
	"roomchat-service/internal/middleware"
	"roomchat-service/internal/models"
	"roomchat-service/internal/repositories"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// principalOrAbort fetches the authenticated principal, writing a 401 when
// the middleware did not run.
func principalOrAbort(c *gin.Context) (models.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return models.Principal{}, false
	}
	return principal, true
}

// parseLimit reads the limit query parameter. Zero means unspecified;
// out-of-range values are clamped downstream, only non-numeric input is
// rejected.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return limit, true
}

// threadAddressFor resolves a channel name / DM id pair into a validated
// thread address. DM ids are canonicalised and checked against the
// principal's membership.
func threadAddressFor(c *gin.Context, principal models.Principal, channel, dmID string) (repositories.ThreadAddress, bool) {
	switch {
	case channel != "" && dmID == "":
		return repositories.ThreadAddress{Kind: models.KindChannel, Channel: channel}, true

	case dmID != "" && channel == "":
		a, b, ok := keys.DMMembers(dmID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dm id"})
			return repositories.ThreadAddress{}, false
		}
		lower := strings.ToLower(principal.Username)
		if lower != strings.ToLower(a) && lower != strings.ToLower(b) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a thread member"})
			return repositories.ThreadAddress{}, false
		}
		return repositories.ThreadAddress{Kind: models.KindDM, DMThreadID: keys.DMThreadID(a, b)}, true

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of channel or dmId is required"})
		return repositories.ThreadAddress{}, false
	}
}
