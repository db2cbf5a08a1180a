package subscriptions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the process-local fallback used when Redis is disabled.
// Seen-event entries expire after ttl so the map stays bounded.
type MemoryStore struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	plans map[string]Plan
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore constructs a MemoryStore with the given seen-event TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &MemoryStore{
		seen:  make(map[string]time.Time),
		plans: make(map[string]Plan),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) MarkSeen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.seen[eventID]; ok && now.Before(expiry) {
		return false, nil
	}
	s.seen[eventID] = now.Add(s.ttl)
	s.sweep(now)
	return true, nil
}

func (s *MemoryStore) SetPlan(_ context.Context, userID string, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[userID] = plan
	return nil
}

func (s *MemoryStore) GetPlan(_ context.Context, userID string) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[userID]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return plan, nil
}

func (s *MemoryStore) ClearPlan(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, userID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// sweep drops expired seen entries. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	for id, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, id)
		}
	}
}
