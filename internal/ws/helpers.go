package ws

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// threadKind labels a thread id for metrics and routing keys.
func threadKind(threadID string) string {
	if strings.HasPrefix(threadID, "DM#") {
		return "dm"
	}
	return "channel"
}

func wsRoutingKey(kind string) string {
	if kind == "dm" {
		return "ws_events.dms"
	}
	return "ws_events.channels"
}
