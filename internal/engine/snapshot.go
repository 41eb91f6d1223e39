package engine

import (
	"context"
	"time"

	"quizify-engine/internal/domain"
)

// Snapshot is a resumable image of an unsubmitted session, kept in durable
// storage for up to 24 hours.
type Snapshot struct {
	QuizID       string            `json:"quizId"`
	Questions    []domain.Question `json:"questions"`
	CurrentIndex int               `json:"currentIndex"`
	Answers      map[int]string    `json:"answers"`
	Marked       []int             `json:"markedForReview"`
	Options      map[int][]string  `json:"shuffledOptions"`
	TotalSeconds int               `json:"totalSeconds"`
	Remaining    int               `json:"remaining"`
	SavedAtMs    int64             `json:"timestamp"`
}

// SnapshotStore persists session snapshots keyed by quiz ID.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context, quizID string) (Snapshot, bool, error)
	ClearSnapshot(ctx context.Context, quizID string) error
}

// ComparisonStore keeps the single latest per-question comparison record for
// the immediately-following results view. Best effort.
type ComparisonStore interface {
	SaveLatestComparison(ctx context.Context, summary domain.SubmissionSummary) error
	LatestComparison(ctx context.Context) (domain.SubmissionSummary, bool, error)
}

// Snapshot captures the session's resumable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[int]string, len(s.answers))
	for i, answer := range s.answers {
		answers[i] = answer
	}
	marked := make([]int, 0, len(s.marked))
	for i := range s.marked {
		marked = append(marked, i)
	}
	options := make(map[int][]string, len(s.options))
	for i, opts := range s.options {
		options[i] = append([]string(nil), opts...)
	}

	return Snapshot{
		QuizID:       s.id,
		Questions:    s.questions,
		CurrentIndex: s.current,
		Answers:      answers,
		Marked:       marked,
		Options:      options,
		TotalSeconds: s.total,
		Remaining:    s.remainingLocked(),
		SavedAtMs:    time.Now().UnixMilli(),
	}
}

// RestoreSession rebuilds a session from a snapshot. The cached option order
// is reused verbatim; reshuffling under a restored user is forbidden.
func RestoreSession(snap Snapshot, opts ...SessionOption) *Session {
	s := NewSession(snap.QuizID, snap.Questions, snap.TotalSeconds, opts...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap.CurrentIndex
	s.startLeft = snap.Remaining
	for i, answer := range snap.Answers {
		s.answers[i] = answer
	}
	for _, i := range snap.Marked {
		s.marked[i] = struct{}{}
	}
	for i, options := range snap.Options {
		s.options[i] = append([]string(nil), options...)
	}
	return s
}
