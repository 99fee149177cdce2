package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"

	"roomchat-service/internal/dynamo"
	"roomchat-service/internal/keys"
	"roomchat-service/internal/models"
	"roomchat-service/internal/observability"
	"roomchat-service/internal/rows"
)

// ErrWriteConflict is returned when a message write collided on its key and
// the single in-process retry collided again. The caller may retry the send.
var ErrWriteConflict = errors.New("message write conflict")

// ErrInvalidThread is returned for a thread address with no usable target.
var ErrInvalidThread = errors.New("invalid thread address")

const (
	// DefaultMessageLimit applies when a list request does not specify one.
	DefaultMessageLimit = 50

	// MaxMessageLimit caps a single list request.
	MaxMessageLimit = 200
)

// ThreadAddress identifies one message thread: a channel by name or a DM
// thread by canonical id.
type ThreadAddress struct {
	Kind       models.MessageKind
	Channel    string
	DMThreadID string
}

// Validate checks that the address carries a usable target.
func (a ThreadAddress) Validate() error {
	switch a.Kind {
	case models.KindChannel:
		if a.Channel == "" {
			return ErrInvalidThread
		}
	case models.KindDM:
		if _, _, ok := keys.DMMembers(a.DMThreadID); !ok {
			return ErrInvalidThread
		}
	default:
		return ErrInvalidThread
	}
	return nil
}

// CurrentPartition returns the partition key new writes and first-choice
// reads use.
func (a ThreadAddress) CurrentPartition() string {
	if a.Kind == models.KindDM {
		return a.DMThreadID
	}
	return keys.ChannelPartition(a.Channel)
}

// LegacyPartition returns the partition key rows written under the old
// convention carry.
func (a ThreadAddress) LegacyPartition() string {
	if a.Kind == models.KindDM {
		return keys.LegacyDMPartition(a.DMThreadID)
	}
	return keys.LegacyChannelPartition(a.Channel)
}

// MessageRepository is the append-only write and ordered read surface for
// one thread's messages.
type MessageRepository interface {
	Send(ctx context.Context, address ThreadAddress, author, text string) (models.Message, error)
	List(ctx context.Context, address ThreadAddress, limit int) ([]models.Message, error)
}

// MessageRepo is the table-backed implementation of MessageRepository.
type MessageRepo struct {
	store     dynamo.Store
	clock     func() time.Time
	newSuffix func() string
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(store dynamo.Store) *MessageRepo {
	return &MessageRepo{
		store:     store,
		clock:     time.Now,
		newSuffix: uuid.NewString,
	}
}

type messageItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	Kind        string `dynamodbav:"kind"`
	ChannelName string `dynamodbav:"channelName,omitempty"`
	DMThreadID  string `dynamodbav:"dmThreadId,omitempty"`
	Author      string `dynamodbav:"author"`
	Text        string `dynamodbav:"text"`
	CreatedAt   string `dynamodbav:"createdAt"`
	MessageID   string `dynamodbav:"messageId"`
}

// Send appends a message to the thread under the current key convention.
// The sort key embeds the server-assigned timestamp plus a fresh unique
// suffix, and the write is guarded against the (astronomically unlikely)
// case that the exact key already exists. A guard rejection regenerates the
// suffix and retries exactly once; a second rejection surfaces as
// ErrWriteConflict.
func (r *MessageRepo) Send(ctx context.Context, address ThreadAddress, author, text string) (models.Message, error) {
	if err := address.Validate(); err != nil {
		return models.Message{}, err
	}
	if author == "" || text == "" {
		return models.Message{}, errors.New("author and text cannot be empty")
	}

	createdAt := keys.FormatTimestamp(r.clock())
	pk := address.CurrentPartition()

	for attempt := 0; attempt < 2; attempt++ {
		suffix := r.newSuffix()
		msg := models.Message{
			PartitionKey: pk,
			SortKey:      keys.MessageSortKey(createdAt, suffix),
			Kind:         address.Kind,
			ChannelName:  address.Channel,
			DMThreadID:   address.DMThreadID,
			Author:       author,
			Text:         text,
			CreatedAt:    createdAt,
			MessageID:    suffix,
		}

		item, err := attributevalue.MarshalMap(messageItem{
			PK:          msg.PartitionKey,
			SK:          msg.SortKey,
			Kind:        string(msg.Kind),
			ChannelName: msg.ChannelName,
			DMThreadID:  msg.DMThreadID,
			Author:      msg.Author,
			Text:        msg.Text,
			CreatedAt:   msg.CreatedAt,
			MessageID:   msg.MessageID,
		})
		if err != nil {
			return models.Message{}, fmt.Errorf("failed to marshal message: %w", err)
		}

		err = r.store.Put(ctx, item, true)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, dynamo.ErrConditionalCheckFailed) {
			return models.Message{}, err
		}
	}

	return models.Message{}, ErrWriteConflict
}

// List returns the thread's messages in chronological order, capped at
// limit (clamped to [1, MaxMessageLimit], defaulting to
// DefaultMessageLimit when unspecified).
//
// Reads are two-phase: a cheap query against the current-convention
// partition first, then, only on a true empty result, a full-table scan
// filtered to rows carrying the thread's legacy partition key. A thread
// with no messages at all therefore pays the scan on every call; that cost
// is inherent to supporting both conventions without a migration and must
// not be short-circuited by caching across requests.
func (r *MessageRepo) List(ctx context.Context, address ThreadAddress, limit int) ([]models.Message, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	items, err := r.store.Query(ctx, address.CurrentPartition(), keys.MessageSortPrefix, true, int32(limit))
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(items))
	for _, item := range items {
		if row := rows.Classify(item); row.Message != nil {
			msgs = append(msgs, *row.Message)
		}
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	return r.listLegacy(ctx, address, limit)
}

func (r *MessageRepo) listLegacy(ctx context.Context, address ThreadAddress, limit int) ([]models.Message, error) {
	observability.IncLegacyFallback(string(address.Kind))

	items, err := r.store.Scan(ctx)
	if err != nil {
		return nil, err
	}

	legacyPK := address.LegacyPartition()
	msgs := make([]models.Message, 0)
	for _, item := range items {
		row := rows.Classify(item)
		if row.Message == nil || row.PK != legacyPK {
			continue
		}
		msg := *row.Message
		msg.Kind = address.Kind
		msg.ChannelName = address.Channel
		msg.DMThreadID = address.DMThreadID
		msgs = append(msgs, msg)
	}

	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt != msgs[j].CreatedAt {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		}
		return msgs[i].SortKey < msgs[j].SortKey
	})
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultMessageLimit
	case limit < 1:
		return 1
	case limit > MaxMessageLimit:
		return MaxMessageLimit
	}
	return limit
}
