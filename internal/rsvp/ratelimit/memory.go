package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store with the same semantics as the Redis
// one. It serves deployments running without Redis and tests; being local, it
// cannot enforce a global budget across replicas.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[string]*memberSet
}

type memberSet struct {
	scores    map[string]int64 // member -> score in unix millis
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string]*memberSet)}
}

func (s *MemoryStore) Slide(_ context.Context, key, member string, now time.Time, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if ok && now.After(set.expiresAt) {
		// Key TTL lapsed; the whole structure is gone.
		ok = false
	}
	if !ok {
		set = &memberSet{scores: make(map[string]int64)}
		s.sets[key] = set
	}

	set.scores[member] = now.UnixMilli()

	cutoff := now.UnixMilli() - window.Milliseconds()
	for m, score := range set.scores {
		if score < cutoff {
			delete(set.scores, m)
		}
	}

	set.expiresAt = now.Add(window)

	return int64(len(set.scores)), window, nil
}
