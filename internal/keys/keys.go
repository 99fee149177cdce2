// Package keys maps logical chat addresses (channel names, DM member pairs)
// onto the partition/sort key layout of the backing table.
//
// Two key conventions coexist in stored data. The current convention is the
// only one ever written; the legacy convention is recognised read-only so
// that rows written by earlier deployments stay reachable without a
// migration:
//
//	channel message  PK "CHANNEL#<name>"      SK "MSG#<iso>#<suffix>"
//	                 PK "MSG#CHANNEL#<name>"  SK "TS#<iso>#<suffix>"   (legacy)
//	dm message       PK "DM#<low>#<high>"     SK "MSG#<iso>#<suffix>"
//	                 PK "MSG#DM#<low>#<high>" SK "TS#<iso>#<suffix>"   (legacy)
//	channel meta     PK "CHANNEL"             SK "CHANNEL#<name>"
//	                 PK "CHANNEL#<name>"      SK "META#INFO"
//	dm meta          PK "DM"                  SK "DM#<low>#<high>"
//	                 PK "DM#<low>#<high>"     SK "META#INFO"
//	user             PK "USER#<n>"            SK "PROFILE#<n>"         (legacy)
//	                 PK "USER"                SK "USER#<uuid>"
//
// All functions are pure and total over string inputs; an empty name simply
// yields a key that matches no convention, and rejecting it is the caller's
// job.
package keys

import (
	"strings"
	"time"
)

const (
	// ChannelMetaPartition is the shared partition of current-convention
	// channel metadata rows keyed by SK.
	ChannelMetaPartition = "CHANNEL"

	// DMMetaPartition is the shared partition of current-convention DM
	// metadata rows keyed by SK.
	DMMetaPartition = "DM"

	// MetaInfoSortKey marks per-entity metadata rows whose PK carries the
	// entity address.
	MetaInfoSortKey = "META#INFO"

	// MessageSortPrefix prefixes every current-convention message sort key.
	MessageSortPrefix = "MSG#"

	// LegacyMessageSortPrefix prefixes legacy message sort keys (read-only).
	LegacyMessageSortPrefix = "TS#"

	channelPrefix       = "CHANNEL#"
	dmPrefix            = "DM#"
	legacyChannelPrefix = "MSG#CHANNEL#"
	legacyDMPrefix      = "MSG#DM#"
	userKeyPrefix       = "USER#"
	userProfilePrefix   = "PROFILE#"
)

// TimestampLayout is the ISO-8601 layout used inside message sort keys.
// Millisecond precision with a literal Z keeps lexicographic order equal to
// chronological order, matching timestamps already present in stored data.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in the sort-key timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ChannelPartition returns the current-convention partition key for a
// channel's message rows.
func ChannelPartition(name string) string {
	return channelPrefix + name
}

// LegacyChannelPartition returns the legacy-convention partition key for a
// channel's message rows.
func LegacyChannelPartition(name string) string {
	return legacyChannelPrefix + name
}

// ChannelNameFromPartition recovers the channel name from either
// convention's partition key. Returns "" when pk is not a channel partition.
func ChannelNameFromPartition(pk string) string {
	if strings.HasPrefix(pk, legacyChannelPrefix) {
		return strings.TrimPrefix(pk, legacyChannelPrefix)
	}
	if strings.HasPrefix(pk, channelPrefix) {
		return strings.TrimPrefix(pk, channelPrefix)
	}
	return ""
}

// DMThreadID canonicalises an unordered username pair into the DM thread
// identifier. Both names are lowercased and sorted, so any argument order
// yields the same id and callers never need to try both orderings.
func DMThreadID(userA, userB string) string {
	low := strings.ToLower(userA)
	high := strings.ToLower(userB)
	if low > high {
		low, high = high, low
	}
	return dmPrefix + low + "#" + high
}

// LegacyDMPartition returns the legacy-convention partition key for a DM
// thread's message rows.
func LegacyDMPartition(threadID string) string {
	return "MSG#" + threadID
}

// DMMembers splits a DM thread id into its two member usernames.
func DMMembers(threadID string) (string, string, bool) {
	parts := strings.Split(threadID, "#")
	if len(parts) != 3 || parts[0] != "DM" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// DMThreadIDFromPartition recovers the canonical thread id from either
// convention's partition key. Returns "" when pk is not a DM partition.
func DMThreadIDFromPartition(pk string) string {
	id := pk
	if strings.HasPrefix(pk, legacyDMPrefix) {
		id = strings.TrimPrefix(pk, "MSG#")
	}
	if _, _, ok := DMMembers(id); !ok {
		return ""
	}
	return id
}

// MessageSortKey builds a current-convention message sort key. The ISO
// timestamp segment keeps scans chronological; the suffix guards against
// same-millisecond collisions.
func MessageSortKey(isoTimestamp, suffix string) string {
	return MessageSortPrefix + isoTimestamp + "#" + suffix
}

// ParseMessageSortKey extracts the timestamp and unique suffix from a
// message sort key of either convention.
func ParseMessageSortKey(sk string) (timestamp, suffix string, ok bool) {
	rest := ""
	switch {
	case strings.HasPrefix(sk, MessageSortPrefix):
		rest = strings.TrimPrefix(sk, MessageSortPrefix)
	case strings.HasPrefix(sk, LegacyMessageSortPrefix):
		rest = strings.TrimPrefix(sk, LegacyMessageSortPrefix)
	default:
		return "", "", false
	}
	idx := strings.LastIndex(rest, "#")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// ChannelMetaSortKey returns the sort key of the shared-partition channel
// metadata row.
func ChannelMetaSortKey(name string) string {
	return channelPrefix + name
}

// UserIDFromKey extracts the identity segment from a USER#-prefixed key
// part. Returns "" when the part does not carry one.
func UserIDFromKey(part string) string {
	if strings.HasPrefix(part, userKeyPrefix) {
		return strings.TrimPrefix(part, userKeyPrefix)
	}
	return ""
}

// IsChannelMetaRow reports whether the normalized key pair addresses a
// channel metadata row under the current convention.
func IsChannelMetaRow(pk, sk string) bool {
	if pk == ChannelMetaPartition && strings.HasPrefix(sk, channelPrefix) {
		return true
	}
	return strings.HasPrefix(pk, channelPrefix) && sk == MetaInfoSortKey
}

// IsChannelMessageRow reports whether the key pair addresses a
// current-convention channel message row.
func IsChannelMessageRow(pk, sk string) bool {
	return strings.HasPrefix(pk, channelPrefix) && strings.HasPrefix(sk, MessageSortPrefix)
}

// IsLegacyChannelRow reports whether the key pair addresses a
// legacy-convention channel message row.
func IsLegacyChannelRow(pk string) bool {
	return strings.HasPrefix(pk, legacyChannelPrefix)
}

// IsDMMetaRow reports whether the key pair addresses a DM metadata row
// under the current convention.
func IsDMMetaRow(pk, sk string) bool {
	if pk == DMMetaPartition && strings.HasPrefix(sk, dmPrefix) {
		return true
	}
	return strings.HasPrefix(pk, dmPrefix) && sk == MetaInfoSortKey
}

// IsDMMessageRow reports whether the key pair addresses a DM message row
// under the current convention. Any DM#-prefixed partition that is not
// metadata counts: historical writers were not consistent about sort-key
// prefixes.
func IsDMMessageRow(pk, sk string) bool {
	return strings.HasPrefix(pk, dmPrefix) && pk != DMMetaPartition && sk != MetaInfoSortKey
}

// IsLegacyDMRow reports whether the key pair addresses a legacy-convention
// DM message row.
func IsLegacyDMRow(pk string) bool {
	return strings.HasPrefix(pk, legacyDMPrefix)
}

// IsUserRow reports whether the key pair addresses a user row under either
// historical convention.
func IsUserRow(pk, sk string) bool {
	if strings.HasPrefix(pk, userKeyPrefix) && strings.HasPrefix(sk, userProfilePrefix) {
		return true
	}
	return pk == "USER" && strings.HasPrefix(sk, userKeyPrefix)
}
