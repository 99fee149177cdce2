package ws

import "time"

type ConnInfo struct {
	ConnID      string
	Username    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
