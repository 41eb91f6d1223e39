package app

import (
	"context"
	"log"
	"math/rand"
	"time"

	"quizify-engine/internal/domain"
	"quizify-engine/internal/engine"
	"quizify-engine/internal/report"
	"quizify-engine/internal/trivia"
)

// QuestionSource acquires a question batch (live provider or fallback bank).
type QuestionSource interface {
	Acquire(ctx context.Context, req trivia.Request) ([]domain.Question, error)
}

// SessionRegistry tracks the live sessions by quiz ID.
type SessionRegistry interface {
	Add(session *engine.Session)
	Get(quizID string) (*engine.Session, bool)
	Delete(quizID string)
}

// ReportSink persists the summary to the external backend.
type ReportSink interface {
	Submit(ctx context.Context, summary domain.SubmissionSummary) (report.SubmitResult, error)
}

// QuizService contains the core quiz use cases: acquire questions, run a
// session, score it, and hand the summary off for persistence.
type QuizService struct {
	source       QuestionSource
	sessions     SessionRegistry
	reports      ReportSink
	snapshots    engine.SnapshotStore
	comparisons  engine.ComparisonStore
	totalSeconds int
	tickInterval time.Duration
	newRand      func() *rand.Rand
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

// WithTotalSeconds overrides the default 30-minute session budget.
func WithTotalSeconds(seconds int) ServiceOption {
	return func(s *QuizService) { s.totalSeconds = seconds }
}

// WithTickInterval speeds up session countdowns in tests.
func WithTickInterval(interval time.Duration) ServiceOption {
	return func(s *QuizService) { s.tickInterval = interval }
}

// WithRandSource makes option shuffles deterministic in tests.
func WithRandSource(newRand func() *rand.Rand) ServiceOption {
	return func(s *QuizService) { s.newRand = newRand }
}

// DefaultTotalSeconds is the 30-minute session budget.
const DefaultTotalSeconds = 1800

func NewQuizService(source QuestionSource, sessions SessionRegistry, reports ReportSink, snapshots engine.SnapshotStore, comparisons engine.ComparisonStore, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		source:       source,
		sessions:     sessions,
		reports:      reports,
		snapshots:    snapshots,
		comparisons:  comparisons,
		totalSeconds: DefaultTotalSeconds,
		tickInterval: time.Second,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartQuiz acquires a question set, seeds a new session with a fresh quiz
// ID, starts the countdown, and registers it. Timer expiry routes back into
// Submit.
func (s *QuizService) StartQuiz(ctx context.Context, req trivia.Request) (*engine.Session, error) {
	questions, err := s.source.Acquire(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	quizID := engine.NewQuizID()
	session := engine.NewSession(quizID, questions, s.totalSeconds,
		engine.WithRand(s.newRand()),
		engine.WithTickInterval(s.tickInterval),
		engine.WithExpiryHandler(func() {
			if _, err := s.Submit(context.Background(), quizID); err != nil {
				log.Printf("auto-submit on expiry failed for %s: %v", quizID, err)
			}
		}),
	)
	s.sessions.Add(session)
	session.Start()
	s.saveSnapshot(ctx, session)
	return session, nil
}

// Resume rebuilds a session from a stored snapshot, if one survives.
func (s *QuizService) Resume(ctx context.Context, quizID string) (*engine.Session, error) {
	if session, ok := s.sessions.Get(quizID); ok {
		return session, nil
	}
	snap, ok, err := s.snapshots.LoadSnapshot(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session := engine.RestoreSession(snap,
		engine.WithRand(s.newRand()),
		engine.WithTickInterval(s.tickInterval),
		engine.WithExpiryHandler(func() {
			if _, err := s.Submit(context.Background(), quizID); err != nil {
				log.Printf("auto-submit on expiry failed for %s: %v", quizID, err)
			}
		}),
	)
	s.sessions.Add(session)
	session.Start()
	return session, nil
}

// Session looks up a live session.
func (s *QuizService) Session(quizID string) (*engine.Session, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SaveProgress snapshots an in-flight session so a reload can resume it.
func (s *QuizService) SaveProgress(ctx context.Context, quizID string) error {
	session, err := s.Session(quizID)
	if err != nil {
		return err
	}
	s.saveSnapshot(ctx, session)
	return nil
}

// Submit finalizes a session: freeze the clock, build the summary, stash the
// comparison record for the results view, and POST the report. Persistence
// failure is logged, never fatal; the summary is returned regardless. Repeat
// calls are no-ops returning the same summary.
func (s *QuizService) Submit(ctx context.Context, quizID string) (domain.SubmissionSummary, error) {
	session, err := s.Session(quizID)
	if err != nil {
		return domain.SubmissionSummary{}, err
	}

	sub, first, err := session.Submit()
	if err != nil {
		return domain.SubmissionSummary{}, err
	}
	summary := engine.BuildSummary(session.Questions(), sub)
	if !first {
		return summary, nil
	}

	if err := s.comparisons.SaveLatestComparison(ctx, summary); err != nil {
		log.Printf("save latest comparison failed: %v", err)
	}
	if err := s.snapshots.ClearSnapshot(ctx, quizID); err != nil {
		log.Printf("clear snapshot failed for %s: %v", quizID, err)
	}

	if _, err := s.reports.Submit(ctx, summary); err != nil {
		// The score is already known client-side; a failed POST must not
		// block showing it.
		log.Printf("persisting summary for %s failed: %v", quizID, err)
	}

	session.MarkSubmitted()
	s.sessions.Delete(quizID)
	return summary, nil
}

// LatestComparison returns the per-question record of the most recent
// submission for the results view.
func (s *QuizService) LatestComparison(ctx context.Context) (domain.SubmissionSummary, bool, error) {
	return s.comparisons.LatestComparison(ctx)
}

func (s *QuizService) saveSnapshot(ctx context.Context, session *engine.Session) {
	if err := s.snapshots.SaveSnapshot(ctx, session.Snapshot()); err != nil {
		log.Printf("save snapshot failed for %s: %v", session.ID(), err)
	}
}
