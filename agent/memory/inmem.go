package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// InMemoryStore keeps preferences per user in process memory. It serves the
// CLI and tests when no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]record
}

var _ contractx.MemoryStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[string][]record)}
}

func (s *InMemoryStore) Append(_ context.Context, userID, content, category, _ string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if category == "" {
		category = Categorize(content)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if isDuplicate(content, nil, s.byUser[userID]) {
		return nil
	}
	s.byUser[userID] = append(s.byUser[userID], record{
		ID:       uuid.NewString(),
		Content:  content,
		Category: category,
	})
	return nil
}

func (s *InMemoryStore) Search(_ context.Context, userID, query string, k int) ([]statex.MemoryHit, error) {
	if k <= 0 {
		k = 3
	}

	s.mu.RLock()
	records := make([]record, len(s.byUser[userID]))
	copy(records, s.byUser[userID])
	s.mu.RUnlock()

	return selectHits(rankRecords(query, nil, records, k), k), nil
}

func (s *InMemoryStore) Profile(_ context.Context, userID string) (statex.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return buildProfile(userID, s.byUser[userID]), nil
}

func (s *InMemoryStore) Wipe(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser = make(map[string][]record)
	return nil
}
