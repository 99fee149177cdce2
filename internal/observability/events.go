package observability

// EventEnvelope is the wire shape of every published chat event. Stream
// groups related events (message_events, ws_events, user_events); Event is
// the specific occurrence within the stream.
type EventEnvelope struct {
	Stream  string      `json:"stream"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// EventHeaders builds the broker headers correlating an event with the
// request and trace that produced it. Empty values are omitted.
func EventHeaders(requestID, traceID string) map[string]string {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["x-trace-id"] = traceID
	}
	return headers
}
