package models

// ChannelMeta is the logical view of a channel after aggregation. A channel
// may be backed by several physical rows written under different key
// conventions; IsLocked is the OR of every surviving row's flag.
type ChannelMeta struct {
	Name     string `json:"name"`
	IsLocked bool   `json:"isLocked"`
}
