package dynamotest

import (
	"context"
	"sort"
	"strings"
	"sync"

	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"roomchat-service/internal/dynamo"
)

// MemoryStore is an in-memory implementation of the store interface for
// repository tests. It honours the conditional-put contract, sort-key
// ordering, and prefix matching of the real table.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]map[string]map[string]dynamodbtypes.AttributeValue
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]map[string]map[string]dynamodbtypes.AttributeValue),
	}
}

// Seed inserts an item unconditionally, for test setup.
func (s *MemoryStore) Seed(item map[string]dynamodbtypes.AttributeValue) {
	_ = s.Put(context.Background(), item, false)
}

func (s *MemoryStore) Put(_ context.Context, item map[string]dynamodbtypes.AttributeValue, onlyIfAbsent bool) error {
	pk := stringValue(item[dynamo.PartitionKey])
	if pk == "" {
		pk = stringValue(item["pk"])
	}
	sk := stringValue(item[dynamo.SortKey])
	if sk == "" {
		sk = stringValue(item["sk"])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	partition, ok := s.items[pk]
	if !ok {
		partition = make(map[string]map[string]dynamodbtypes.AttributeValue)
		s.items[pk] = partition
	}
	if onlyIfAbsent {
		if _, exists := partition[sk]; exists {
			return dynamo.ErrConditionalCheckFailed
		}
	}
	partition[sk] = item
	return nil
}

func (s *MemoryStore) Query(_ context.Context, pk, skPrefix string, ascending bool, limit int32) ([]map[string]dynamodbtypes.AttributeValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sks := make([]string, 0, len(s.items[pk]))
	for sk := range s.items[pk] {
		if strings.HasPrefix(sk, skPrefix) {
			sks = append(sks, sk)
		}
	}
	sort.Strings(sks)
	if !ascending {
		for i, j := 0, len(sks)-1; i < j; i, j = i+1, j-1 {
			sks[i], sks[j] = sks[j], sks[i]
		}
	}

	var out []map[string]dynamodbtypes.AttributeValue
	for _, sk := range sks {
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
		out = append(out, s.items[pk][sk])
	}
	return out, nil
}

func (s *MemoryStore) Scan(_ context.Context, _ ...string) ([]map[string]dynamodbtypes.AttributeValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []map[string]dynamodbtypes.AttributeValue
	for _, partition := range s.items {
		for _, item := range partition {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, pk, sk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partition, ok := s.items[pk]; ok {
		delete(partition, sk)
		if len(partition) == 0 {
			delete(s.items, pk)
		}
	}
	return nil
}

func stringValue(attr dynamodbtypes.AttributeValue) string {
	if s, ok := attr.(*dynamodbtypes.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
