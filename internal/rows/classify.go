// Package rows classifies raw table items into the logical entities of the
// chat domain. The table holds rows written by several generations of the
// service (and rows that are not ours at all), so classification is
// permissive: attribute casing varies, fields have been renamed over time,
// and anything unrecognisable is skipped rather than reported as an error.
package rows

import (
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"roomchat-service/internal/keys"
	"roomchat-service/internal/models"
)

// Kind is the logical entity type of a classified row.
type Kind int

const (
	KindUnknown Kind = iota
	KindChannelMeta
	KindChannelMessage
	KindDMMeta
	KindDMMessage
	KindUser
)

// Item is one raw stored row.
type Item = map[string]dynamodbtypes.AttributeValue

// Row is the normalized view of a classified item. Only the fields relevant
// to the row's Kind are populated; Message is left nil when a message row
// is missing an author, text, or derivable timestamp after all fallbacks.
type Row struct {
	Kind   Kind
	Legacy bool
	PK     string
	SK     string

	ChannelName string
	IsLocked    bool

	DMThreadID    string
	Members       []string
	LastMessageAt string

	Message *models.Message
	User    *models.User
}

// Classify inspects one raw item and returns its normalized view. It never
// mutates the item, so classifying the same row twice yields identical
// output.
func Classify(item Item) Row {
	pk := StringField(item, "PK", "pk")
	sk := StringField(item, "SK", "sk")
	row := Row{Kind: KindUnknown, PK: pk, SK: sk}

	switch {
	case keys.IsChannelMetaRow(pk, sk):
		row.Kind = KindChannelMeta
		row.ChannelName = channelMetaName(item, pk, sk)
		row.IsLocked = boolField(item, "isLocked")

	case keys.IsChannelMessageRow(pk, sk):
		row.Kind = KindChannelMessage
		row.ChannelName = keys.ChannelNameFromPartition(pk)
		row.Message = extractMessage(item, pk, sk, models.KindChannel, row.ChannelName, "")

	case keys.IsLegacyChannelRow(pk):
		row.Kind = KindChannelMessage
		row.Legacy = true
		row.ChannelName = keys.ChannelNameFromPartition(pk)
		row.Message = extractMessage(item, pk, sk, models.KindChannel, row.ChannelName, "")

	case keys.IsDMMetaRow(pk, sk):
		row.Kind = KindDMMeta
		row.DMThreadID = dmMetaThreadID(pk, sk)
		row.Members = extractMembers(item, row.DMThreadID)
		row.LastMessageAt = StringField(item, "lastMessageAt")

	case keys.IsLegacyDMRow(pk):
		row.Kind = KindDMMessage
		row.Legacy = true
		row.DMThreadID = keys.DMThreadIDFromPartition(pk)
		row.Members = extractMembers(item, row.DMThreadID)
		row.Message = extractMessage(item, pk, sk, models.KindDM, "", row.DMThreadID)

	case keys.IsDMMessageRow(pk, sk):
		row.Kind = KindDMMessage
		row.DMThreadID = keys.DMThreadIDFromPartition(pk)
		row.Members = extractMembers(item, row.DMThreadID)
		row.Message = extractMessage(item, pk, sk, models.KindDM, "", row.DMThreadID)

	case keys.IsUserRow(pk, sk):
		row.Kind = KindUser
		row.User = extractUser(item, pk, sk)
	}

	return row
}

// StringField returns the first non-empty string attribute among names.
func StringField(item Item, names ...string) string {
	for _, name := range names {
		if attr, ok := item[name].(*dynamodbtypes.AttributeValueMemberS); ok && attr.Value != "" {
			return attr.Value
		}
	}
	return ""
}

func boolField(item Item, names ...string) bool {
	for _, name := range names {
		switch attr := item[name].(type) {
		case *dynamodbtypes.AttributeValueMemberBOOL:
			return attr.Value
		case *dynamodbtypes.AttributeValueMemberS:
			if attr.Value == "true" {
				return true
			}
		}
	}
	return false
}

func listField(item Item, name string) []string {
	switch attr := item[name].(type) {
	case *dynamodbtypes.AttributeValueMemberL:
		out := make([]string, 0, len(attr.Value))
		for _, member := range attr.Value {
			if s, ok := member.(*dynamodbtypes.AttributeValueMemberS); ok && s.Value != "" {
				out = append(out, s.Value)
			}
		}
		return out
	case *dynamodbtypes.AttributeValueMemberSS:
		return attr.Value
	}
	return nil
}

func channelMetaName(item Item, pk, sk string) string {
	if name := StringField(item, "name"); name != "" {
		return name
	}
	if name := keys.ChannelNameFromPartition(sk); name != "" {
		return name
	}
	return keys.ChannelNameFromPartition(pk)
}

func dmMetaThreadID(pk, sk string) string {
	if id := keys.DMThreadIDFromPartition(sk); id != "" {
		return id
	}
	return keys.DMThreadIDFromPartition(pk)
}

// extractMembers resolves a DM thread's membership: an explicit members
// attribute wins, then the thread id itself, then the legacy userA/userB
// pair.
func extractMembers(item Item, threadID string) []string {
	if members := listField(item, "members"); len(members) == 2 {
		return members
	}
	if a, b, ok := keys.DMMembers(threadID); ok {
		return []string{a, b}
	}
	userA := StringField(item, "userA")
	userB := StringField(item, "userB")
	if userA != "" && userB != "" {
		return []string{userA, userB}
	}
	return nil
}

func extractMessage(item Item, pk, sk string, kind models.MessageKind, channelName, dmThreadID string) *models.Message {
	author := StringField(item, "author", "sender", "username", "user")
	text := StringField(item, "text", "message")

	createdAt := StringField(item, "createdAt")
	skTimestamp, skSuffix, skOK := keys.ParseMessageSortKey(sk)
	if createdAt == "" && skOK {
		createdAt = skTimestamp
	}
	if author == "" || text == "" || createdAt == "" {
		return nil
	}

	messageID := StringField(item, "messageId", "id")
	if messageID == "" && skOK {
		messageID = skSuffix
	}

	return &models.Message{
		PartitionKey: pk,
		SortKey:      sk,
		Kind:         kind,
		ChannelName:  channelName,
		DMThreadID:   dmThreadID,
		Author:       author,
		Text:         text,
		CreatedAt:    createdAt,
		MessageID:    messageID,
	}
}

func extractUser(item Item, pk, sk string) *models.User {
	username := StringField(item, "username", "name")
	return &models.User{
		PartitionKey: pk,
		SortKey:      sk,
		UserID:       ResolveUserID(item, pk, sk),
		Username:     username,
		AccessLevel:  StringField(item, "accessLevel"),
	}
}

// ResolveUserID derives the canonical user id from a user row. Precedence
// is fixed: an explicit userId attribute beats anything derived from keys,
// a PK-derived id beats an SK-derived one (the oldest convention encoded
// identity in the partition key), and the username is the last resort.
func ResolveUserID(item Item, pk, sk string) string {
	if id := StringField(item, "userId"); id != "" {
		return id
	}
	if id := keys.UserIDFromKey(pk); id != "" {
		return id
	}
	if id := keys.UserIDFromKey(sk); id != "" {
		return id
	}
	return StringField(item, "username", "name")
}
