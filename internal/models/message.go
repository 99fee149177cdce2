package models

// MessageKind distinguishes channel messages from direct messages.
type MessageKind string

const (
	KindChannel MessageKind = "channel"
	KindDM      MessageKind = "dm"
)

// Message represents one stored chat message.
type Message struct {
	PartitionKey string      `json:"-"`
	SortKey      string      `json:"-"`
	Kind         MessageKind `json:"kind"`
	ChannelName  string      `json:"channel,omitempty"`
	DMThreadID   string      `json:"dmId,omitempty"`
	Author       string      `json:"author"`
	Text         string      `json:"text"`
	CreatedAt    string      `json:"createdAt"`
	MessageID    string      `json:"messageId"`
}

// ThreadID returns the addressable thread identifier for the message.
func (m Message) ThreadID() string {
	if m.Kind == KindDM {
		return m.DMThreadID
	}
	return m.ChannelName
}

// ThreadEvent is broadcast through websockets to thread subscribers.
type ThreadEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
