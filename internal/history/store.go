package history

import (
	"sort"
	"sync"
	"time"

	"solarshare/internal/model"
)

// Store holds published tick snapshots in memory, ordered by timestamp.
// It backs the replay/backfill surface for late-joining viewers. A limit of
// zero keeps the full run.
type Store struct {
	mu    sync.RWMutex
	snaps []model.TickSnapshot
	limit int
}

func New(limit int) *Store {
	return &Store{limit: limit}
}

// Append records a published snapshot. Ticks are produced in strictly
// increasing time order, so no re-sorting is needed.
func (s *Store) Append(snap model.TickSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps = append(s.snaps, snap)
	if s.limit > 0 && len(s.snaps) > s.limit {
		s.snaps = s.snaps[len(s.snaps)-s.limit:]
	}
}

// Len returns the number of retained snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

// Latest returns the most recent snapshot.
func (s *Store) Latest() (model.TickSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snaps) == 0 {
		return model.TickSnapshot{}, false
	}
	return s.snaps[len(s.snaps)-1], true
}

// All returns the retained snapshots in time order.
func (s *Store) All() []model.TickSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TickSnapshot, len(s.snaps))
	copy(out, s.snaps)
	return out
}

// Range returns snapshots between start (inclusive) and end (exclusive).
func (s *Store) Range(start, end time.Time) []model.TickSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := sort.Search(len(s.snaps), func(i int) bool {
		return !s.snaps[i].Timestamp.Before(start)
	})
	endIdx := sort.Search(len(s.snaps), func(i int) bool {
		return !s.snaps[i].Timestamp.Before(end)
	})

	if startIdx >= endIdx {
		return nil
	}
	out := make([]model.TickSnapshot, endIdx-startIdx)
	copy(out, s.snaps[startIdx:endIdx])
	return out
}
