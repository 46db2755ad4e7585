package session

import (
	"sync"
	"time"
)

const (
	// DefaultShards is used when the configured shard count is not positive.
	DefaultShards = 32
	// WindowSize is the OCR vote window capacity of every session.
	WindowSize = 10
)

type shard struct {
	mu     sync.RWMutex
	states map[int64]*State
}

// Store maps session keys (user ids) to their State. Keys are spread over
// independently locked shards so unrelated sessions never share a lock.
type Store struct {
	shards []*shard
	now    func() time.Time
}

// NewStore creates a store with the given number of shards.
func NewStore(shards int) *Store {
	if shards <= 0 {
		shards = DefaultShards
	}

	store := &Store{
		shards: make([]*shard, shards),
		now:    time.Now,
	}
	for i := range store.shards {
		store.shards[i] = &shard{states: make(map[int64]*State)}
	}
	return store
}

func (s *Store) shardFor(key int64) *shard {
	idx := uint64(key) % uint64(len(s.shards))
	return s.shards[idx]
}

// Lookup returns the state for key if it exists.
func (s *Store) Lookup(key int64) (*State, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	state, exists := sh.states[key]
	return state, exists
}

// GetOrCreate returns the state for key, creating it with defaults when absent.
func (s *Store) GetOrCreate(key int64) *State {
	if state, exists := s.Lookup(key); exists {
		return state
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	// Double-check (may have been created by another goroutine)
	if state, exists := sh.states[key]; exists {
		return state
	}

	state := newState(key, WindowSize, s.now())
	sh.states[key] = state
	return state
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.states)
		sh.mu.RUnlock()
	}
	return total
}

// Sweep removes sessions that are not busy and have been idle longer than idle.
// It returns the number of removed sessions.
//
// A removed state keeps its busy flag set, so a caller still holding the old
// pointer gets its frame dropped instead of racing the replacement state.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	removed := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, state := range sh.states {
			if state.Busy() || state.LastSeen().After(cutoff) {
				continue
			}
			// claim only eviction candidates; a frame may have finished in between
			if !state.TryAdmit() {
				continue
			}
			if state.LastSeen().After(cutoff) {
				state.busy.Store(false)
				continue
			}
			delete(sh.states, key)
			removed++
		}
		sh.mu.Unlock()
	}
	return removed
}

// RunSweeper calls Sweep every interval until stop is closed.
func (s *Store) RunSweeper(idle time.Duration, stop <-chan struct{}, onSweep func(removed int)) {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if removed := s.Sweep(idle); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
