package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat-service/internal/dynamo"
	"roomchat-service/internal/dynamo/dynamotest"
	"roomchat-service/internal/models"
)

type scanCountingStore struct {
	dynamo.Store
	scans int
}

func (s *scanCountingStore) Scan(ctx context.Context, projected ...string) ([]map[string]dynamodbtypes.AttributeValue, error) {
	s.scans++
	return s.Store.Scan(ctx, projected...)
}

func channelAddress(name string) ThreadAddress {
	return ThreadAddress{Kind: models.KindChannel, Channel: name}
}

func dmAddress(threadID string) ThreadAddress {
	return ThreadAddress{Kind: models.KindDM, DMThreadID: threadID}
}

func seedItem(store *dynamotest.MemoryStore, pairs ...string) {
	item := map[string]dynamodbtypes.AttributeValue{}
	for i := 0; i+1 < len(pairs); i += 2 {
		item[pairs[i]] = &dynamodbtypes.AttributeValueMemberS{Value: pairs[i+1]}
	}
	store.Seed(item)
}

func fixedClock(iso string) func() time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", iso)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestThreadAddressValidate(t *testing.T) {
	assert.NoError(t, channelAddress("general").Validate())
	assert.NoError(t, dmAddress("DM#alice#bob").Validate())

	assert.ErrorIs(t, channelAddress("").Validate(), ErrInvalidThread)
	assert.ErrorIs(t, dmAddress("").Validate(), ErrInvalidThread)
	assert.ErrorIs(t, dmAddress("DM#broken").Validate(), ErrInvalidThread)
	assert.ErrorIs(t, ThreadAddress{}.Validate(), ErrInvalidThread)
}

func TestSendWritesCurrentConvention(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)
	repo.clock = fixedClock("2024-03-01T12:30:45.123Z")
	repo.newSuffix = func() string { return "suffix-1" }

	msg, err := repo.Send(context.Background(), channelAddress("general"), "alice", "hello")
	require.NoError(t, err)

	assert.Equal(t, "CHANNEL#general", msg.PartitionKey)
	assert.Equal(t, "MSG#2024-03-01T12:30:45.123Z#suffix-1", msg.SortKey)
	assert.Equal(t, "2024-03-01T12:30:45.123Z", msg.CreatedAt)
	assert.Equal(t, "suffix-1", msg.MessageID)
	assert.Equal(t, models.KindChannel, msg.Kind)

	listed, err := repo.List(context.Background(), channelAddress("general"), 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "alice", listed[0].Author)
	assert.Equal(t, "hello", listed[0].Text)
}

func TestSendDMUsesThreadPartition(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)
	repo.clock = fixedClock("2024-03-01T12:30:45.123Z")

	msg, err := repo.Send(context.Background(), dmAddress("DM#alice#bob"), "alice", "hey")
	require.NoError(t, err)
	assert.Equal(t, "DM#alice#bob", msg.PartitionKey)
	assert.Equal(t, "DM#alice#bob", msg.DMThreadID)
	assert.NotEmpty(t, msg.MessageID)
}

func TestSendRejectsEmptyFields(t *testing.T) {
	repo := NewMessageRepo(dynamotest.NewMemoryStore())

	_, err := repo.Send(context.Background(), channelAddress("general"), "", "hello")
	assert.Error(t, err)

	_, err = repo.Send(context.Background(), channelAddress("general"), "alice", "")
	assert.Error(t, err)

	_, err = repo.Send(context.Background(), channelAddress(""), "alice", "hello")
	assert.ErrorIs(t, err, ErrInvalidThread)
}

func TestSendRetriesOnceOnKeyCollision(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)
	repo.clock = fixedClock("2024-03-01T12:30:45.123Z")

	calls := 0
	repo.newSuffix = func() string {
		calls++
		return fmt.Sprintf("suffix-%d", calls)
	}
	seedItem(store,
		"PK", "CHANNEL#general",
		"SK", "MSG#2024-03-01T12:30:45.123Z#suffix-1",
		"author", "ghost",
		"text", "already here",
	)

	msg, err := repo.Send(context.Background(), channelAddress("general"), "alice", "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "suffix-2", msg.MessageID)
}

func TestSendConflictAfterRetry(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)
	repo.clock = fixedClock("2024-03-01T12:30:45.123Z")
	repo.newSuffix = func() string { return "stuck" }

	seedItem(store,
		"PK", "CHANNEL#general",
		"SK", "MSG#2024-03-01T12:30:45.123Z#stuck",
		"author", "ghost",
		"text", "already here",
	)

	_, err := repo.Send(context.Background(), channelAddress("general"), "alice", "hello")
	assert.ErrorIs(t, err, ErrWriteConflict)
}

func TestListReturnsChronologicalOrder(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)

	times := []string{
		"2024-03-01T12:30:47.000Z",
		"2024-03-01T12:30:45.000Z",
		"2024-03-01T12:30:46.000Z",
	}
	for i, iso := range times {
		repo.clock = fixedClock(iso)
		repo.newSuffix = func() string { return fmt.Sprintf("s%d", i) }
		_, err := repo.Send(context.Background(), channelAddress("general"), "alice", iso)
		require.NoError(t, err)
	}

	listed, err := repo.List(context.Background(), channelAddress("general"), 0)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "2024-03-01T12:30:45.000Z", listed[0].CreatedAt)
	assert.Equal(t, "2024-03-01T12:30:46.000Z", listed[1].CreatedAt)
	assert.Equal(t, "2024-03-01T12:30:47.000Z", listed[2].CreatedAt)
}

func TestListFallsBackToLegacyRows(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)

	seedItem(store,
		"PK", "MSG#CHANNEL#general",
		"SK", "TS#2024-01-01T00:00:01.000Z#b",
		"author", "bob",
		"text", "second",
	)
	seedItem(store,
		"PK", "MSG#CHANNEL#general",
		"SK", "TS#2024-01-01T00:00:00.000Z#a",
		"author", "alice",
		"text", "first",
	)
	seedItem(store,
		"PK", "MSG#CHANNEL#other",
		"SK", "TS#2024-01-01T00:00:00.000Z#x",
		"author", "carol",
		"text", "wrong channel",
	)

	listed, err := repo.List(context.Background(), channelAddress("general"), 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "first", listed[0].Text)
	assert.Equal(t, "second", listed[1].Text)
	assert.Equal(t, models.KindChannel, listed[0].Kind)
	assert.Equal(t, "general", listed[0].ChannelName)
}

func TestListPrefersCurrentConvention(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)

	seedItem(store,
		"PK", "CHANNEL#general",
		"SK", "MSG#2024-03-01T12:00:00.000Z#new",
		"author", "alice",
		"text", "current row",
	)
	seedItem(store,
		"PK", "MSG#CHANNEL#general",
		"SK", "TS#2024-01-01T00:00:00.000Z#old",
		"author", "bob",
		"text", "legacy row",
	)

	listed, err := repo.List(context.Background(), channelAddress("general"), 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "current row", listed[0].Text)
}

func TestListLegacyDMThread(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)

	seedItem(store,
		"PK", "MSG#DM#alice#bob",
		"SK", "TS#2024-01-01T00:00:00.000Z#a",
		"author", "alice",
		"text", "legacy dm",
	)

	listed, err := repo.List(context.Background(), dmAddress("DM#alice#bob"), 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.KindDM, listed[0].Kind)
	assert.Equal(t, "DM#alice#bob", listed[0].DMThreadID)
}

func TestListEmptyThread(t *testing.T) {
	repo := NewMessageRepo(dynamotest.NewMemoryStore())

	listed, err := repo.List(context.Background(), channelAddress("empty"), 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListEmptyThreadScansEveryCall(t *testing.T) {
	store := &scanCountingStore{Store: dynamotest.NewMemoryStore()}
	repo := NewMessageRepo(store)

	// An empty-but-valid thread pays the legacy scan on each call; the
	// negative result is never cached across requests.
	for call := 1; call <= 3; call++ {
		listed, err := repo.List(context.Background(), channelAddress("empty"), 0)
		require.NoError(t, err)
		assert.Empty(t, listed)
		assert.Equal(t, call, store.scans)
	}
}

func TestListCurrentConventionHitSkipsScan(t *testing.T) {
	memory := dynamotest.NewMemoryStore()
	store := &scanCountingStore{Store: memory}
	repo := NewMessageRepo(store)

	seedItem(memory,
		"PK", "CHANNEL#general",
		"SK", "MSG#2024-03-01T12:00:00.000Z#a",
		"author", "alice",
		"text", "hi",
	)

	listed, err := repo.List(context.Background(), channelAddress("general"), 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 0, store.scans)
}

func TestListHonorsLimit(t *testing.T) {
	store := dynamotest.NewMemoryStore()
	repo := NewMessageRepo(store)

	for i := 0; i < 5; i++ {
		seedItem(store,
			"PK", "CHANNEL#general",
			"SK", fmt.Sprintf("MSG#2024-03-01T12:30:4%d.000Z#s%d", i, i),
			"author", "alice",
			"text", fmt.Sprintf("m%d", i),
		)
	}

	listed, err := repo.List(context.Background(), channelAddress("general"), 3)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
	assert.Equal(t, "m0", listed[0].Text)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultMessageLimit, clampLimit(0))
	assert.Equal(t, 1, clampLimit(-7))
	assert.Equal(t, MaxMessageLimit, clampLimit(1000))
	assert.Equal(t, 25, clampLimit(25))
}
