package memory

import (
	"context"
	"sync"
	"time"

	"quizify-engine/internal/domain"
	"quizify-engine/internal/engine"
	"quizify-engine/internal/ratelimit"
)

// SnapshotTTL mirrors the 24-hour expiry of the original local storage.
const SnapshotTTL = 24 * time.Hour

// StateStore is the in-memory implementation of the durable key/value state:
// rate-limit counters, session snapshots, and the latest comparison record.
type StateStore struct {
	mu          sync.RWMutex
	clock       func() time.Time
	rate        ratelimit.State
	hasRate     bool
	snapshots   map[string]snapshotEntry
	comparison  domain.SubmissionSummary
	hasCompare  bool
	snapshotTTL time.Duration
}

type snapshotEntry struct {
	snap      engine.Snapshot
	expiresAt time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{
		clock:       time.Now,
		snapshots:   make(map[string]snapshotEntry),
		snapshotTTL: SnapshotTTL,
	}
}

// NewStateStoreWithClock is test-only for deterministic expiry.
func NewStateStoreWithClock(clock func() time.Time) *StateStore {
	s := NewStateStore()
	s.clock = clock
	return s
}

func (s *StateStore) LoadRateState(_ context.Context) (ratelimit.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate, s.hasRate, nil
}

func (s *StateStore) SaveRateState(_ context.Context, state ratelimit.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = state
	s.hasRate = true
	return nil
}

func (s *StateStore) SaveSnapshot(_ context.Context, snap engine.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.QuizID] = snapshotEntry{
		snap:      snap,
		expiresAt: s.clock().Add(s.snapshotTTL),
	}
	return nil
}

func (s *StateStore) LoadSnapshot(_ context.Context, quizID string) (engine.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.snapshots[quizID]
	if !ok {
		return engine.Snapshot{}, false, nil
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.snapshots, quizID)
		return engine.Snapshot{}, false, nil
	}
	return entry.snap, true, nil
}

func (s *StateStore) ClearSnapshot(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, quizID)
	return nil
}

func (s *StateStore) SaveLatestComparison(_ context.Context, summary domain.SubmissionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparison = summary
	s.hasCompare = true
	return nil
}

func (s *StateStore) LatestComparison(_ context.Context) (domain.SubmissionSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comparison, s.hasCompare, nil
}
