package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// Store persists one catalog per dashboard session.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]domain.Template, bool, error)
	Save(ctx context.Context, sessionID string, templates []domain.Template) error
}

// MemoryStore keeps catalogs in process and evicts sessions idle longer
// than the TTL.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	templates []domain.Template
	expiresAt time.Time
}

// NewMemoryStore creates an in-process store. A non-positive ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]domain.Template, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, false, nil
	}
	if s.expired(entry) {
		delete(s.entries, sessionID)
		return nil, false, nil
	}
	entry.expiresAt = s.deadline()
	s.entries[sessionID] = entry
	return cloneAll(entry.templates), true, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, templates []domain.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = memoryEntry{templates: cloneAll(templates), expiresAt: s.deadline()}
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) deadline() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

// RedisStore keeps catalogs as JSON values with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore wires a store over an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "studio-desk:templates:"}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]domain.Template, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load template session: %w", err)
	}
	var templates []domain.Template
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, false, fmt.Errorf("decode template session: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key(sessionID), s.ttl).Err(); err != nil {
			return nil, false, fmt.Errorf("touch template session: %w", err)
		}
	}
	return templates, true, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, templates []domain.Template) error {
	raw, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("encode template session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save template session: %w", err)
	}
	return nil
}

func cloneAll(in []domain.Template) []domain.Template {
	out := make([]domain.Template, 0, len(in))
	for _, t := range in {
		out = append(out, t.Clone())
	}
	return out
}
