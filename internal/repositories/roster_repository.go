package repositories

import (
	"context"
	"sort"
	"strings"

	"roomchat-service/internal/dynamo"
	"roomchat-service/internal/models"
	"roomchat-service/internal/rows"
)

// RosterRepository rebuilds the channel and DM rosters from a full table
// scan. No secondary index exists, so every call re-derives the view from
// whatever rows are currently stored; a torn view across concurrent
// writers is accepted.
type RosterRepository interface {
	ListChannels(ctx context.Context, includeLocked bool) ([]models.ChannelMeta, error)
	ListDMThreadsForUser(ctx context.Context, username string) ([]models.DMView, error)
}

// RosterRepo is the table-backed implementation of RosterRepository.
type RosterRepo struct {
	store dynamo.Store
}

// NewRosterRepo constructs a RosterRepo.
func NewRosterRepo(store dynamo.Store) *RosterRepo {
	return &RosterRepo{store: store}
}

// ListChannels returns one entry per distinct channel name, sorted by name.
// Duplicate physical rows for the same channel are merged with OR on the
// lock flag: a channel is locked if any surviving record says so. Channels
// known only through message rows appear unlocked. With includeLocked
// false, locked channels are dropped from the result.
func (r *RosterRepo) ListChannels(ctx context.Context, includeLocked bool) ([]models.ChannelMeta, error) {
	items, err := r.store.Scan(ctx)
	if err != nil {
		return nil, err
	}

	locked := map[string]bool{}
	for _, item := range items {
		row := rows.Classify(item)
		switch row.Kind {
		case rows.KindChannelMeta:
			if row.ChannelName != "" {
				locked[row.ChannelName] = locked[row.ChannelName] || row.IsLocked
			}
		case rows.KindChannelMessage:
			if row.ChannelName != "" {
				locked[row.ChannelName] = locked[row.ChannelName] || false
			}
		}
	}

	channels := make([]models.ChannelMeta, 0, len(locked))
	for name, isLocked := range locked {
		if isLocked && !includeLocked {
			continue
		}
		channels = append(channels, models.ChannelMeta{Name: name, IsLocked: isLocked})
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
	return channels, nil
}

// ListDMThreadsForUser returns the user's DM threads, newest activity
// first. Threads without a known timestamp on either side fall back to a
// deterministic thread-id order; the lexical order carries no meaning
// beyond stability. An empty result is an empty slice, never an error.
func (r *RosterRepo) ListDMThreadsForUser(ctx context.Context, username string) ([]models.DMView, error) {
	items, err := r.store.Scan(ctx)
	if err != nil {
		return nil, err
	}

	threads := map[string]*models.DMThread{}
	for _, item := range items {
		row := rows.Classify(item)
		if row.Kind != rows.KindDMMeta && row.Kind != rows.KindDMMessage {
			continue
		}
		if row.DMThreadID == "" || len(row.Members) != 2 {
			continue
		}

		thread, ok := threads[row.DMThreadID]
		if !ok {
			thread = &models.DMThread{ThreadID: row.DMThreadID, Members: row.Members}
			threads[row.DMThreadID] = thread
		}
		if row.LastMessageAt > thread.LastMessageAt {
			thread.LastMessageAt = row.LastMessageAt
		}
		if row.Message != nil && row.Message.CreatedAt > thread.LastMessageAt {
			thread.LastMessageAt = row.Message.CreatedAt
		}
	}

	views := make([]models.DMView, 0, len(threads))
	for _, thread := range threads {
		other, member := otherMember(thread.Members, username)
		if !member {
			continue
		}
		views = append(views, models.DMView{
			ThreadID:      thread.ThreadID,
			OtherUsername: other,
			LastMessageAt: thread.LastMessageAt,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.LastMessageAt != "" && b.LastMessageAt != "" && a.LastMessageAt != b.LastMessageAt {
			return a.LastMessageAt > b.LastMessageAt
		}
		return a.ThreadID < b.ThreadID
	})
	return views, nil
}

// otherMember reports whether username is one of members and returns the
// opposite member. DM keys store lowercased names, so the match is
// case-insensitive.
func otherMember(members []string, username string) (string, bool) {
	for i, member := range members {
		if strings.EqualFold(member, username) {
			return members[1-i], true
		}
	}
	return "", false
}
