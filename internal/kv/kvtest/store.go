// Package kvtest provides an in-process kv.Store for tests.
package kvtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/af-corp/aegis-docai/internal/kv"
)

// ErrUnavailable is returned by every operation while the store is marked down.
var ErrUnavailable = errors.New("kvtest: store unavailable")

type entry struct {
	value     []byte
	count     int64
	expiresAt time.Time
}

// Store mimics the Redis store semantics with a settable clock.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	down    bool
	Now     func() time.Time
}

func New() *Store {
	return &Store{entries: make(map[string]*entry), Now: time.Now}
}

// SetDown makes subsequent operations fail with ErrUnavailable.
func (s *Store) SetDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}

// Keys returns the live keys.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.entries {
		if s.live(k) != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// live returns the entry for key, dropping it when expired. Must be called with mu held.
func (s *Store) live(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !s.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *Store) IncrementWithWindow(_ context.Context, key string, ceiling int64, window time.Duration) (kv.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return kv.Counter{}, ErrUnavailable
	}
	e := s.live(key)
	if e == nil {
		e = &entry{expiresAt: s.Now().Add(window)}
		s.entries[key] = e
	}
	if e.count >= ceiling {
		return kv.Counter{Count: e.count, Admitted: false}, nil
	}
	e.count++
	return kv.Counter{Count: e.count, Admitted: true}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, ErrUnavailable
	}
	e := s.live(key)
	if e == nil || e.value == nil {
		return nil, kv.ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return ErrUnavailable
	}
	e := &entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}
