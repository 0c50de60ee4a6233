package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultStoreKeyPrefix = "tripmind:session:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store persists the last-emitted TurnState per session. Reads past the
// configured TTL behave as session-not-found (lazy expiry).
type Store interface {
	Load(ctx context.Context, sessionID string) (*TurnState, error)
	Save(ctx context.Context, st *TurnState) error
	Delete(ctx context.Context, sessionID string) error
	// Purge drops every session; used by the administrative wipe.
	Purge(ctx context.Context) error
}

// CacheStore keeps session states in process memory with lazy TTL expiry.
// Suitable for the CLI and single-instance deployments; server deployments
// should prefer UpstashRedisStore.
type CacheStore struct {
	cache *gocache.Cache
}

func NewCacheStore(ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = defaultStoreTTL
	}
	// Cleanup interval 0: expired entries are dropped on read, no janitor.
	return &CacheStore{cache: gocache.New(ttl, 0)}
}

func (s *CacheStore) Load(ctx context.Context, sessionID string) (*TurnState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	raw, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrStateNotFound
	}
	payload, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected session payload type %T", raw)
	}

	var st TurnState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &st, nil
}

func (s *CacheStore) Save(ctx context.Context, st *TurnState) error {
	if st == nil {
		return ErrNilTurnState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	s.cache.SetDefault(st.SessionID, payload)
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	s.cache.Delete(sessionID)
	return nil
}

func (s *CacheStore) Purge(ctx context.Context) error {
	s.cache.Flush()
	return nil
}
