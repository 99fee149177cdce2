package models

// DMThread is a direct-message thread between exactly two users, identified
// by the canonical membership-derived thread id.
type DMThread struct {
	ThreadID      string   `json:"threadId"`
	Members       []string `json:"members"`
	LastMessageAt string   `json:"lastMessageAt,omitempty"`
}

// DMView is the per-user projection of a DM thread.
type DMView struct {
	ThreadID      string `json:"threadId"`
	OtherUsername string `json:"otherUsername"`
	LastMessageAt string `json:"lastMessageAt,omitempty"`
}
