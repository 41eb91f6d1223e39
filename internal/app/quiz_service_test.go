package app

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"quizify-engine/internal/domain"
	"quizify-engine/internal/engine"
	"quizify-engine/internal/infra/memory"
	"quizify-engine/internal/report"
	"quizify-engine/internal/trivia"
)

type fakeSource struct {
	questions []domain.Question
	err       error
	calls     atomic.Int32
}

func (f *fakeSource) Acquire(_ context.Context, _ trivia.Request) ([]domain.Question, error) {
	f.calls.Add(1)
	return f.questions, f.err
}

type fakeSink struct {
	calls   atomic.Int32
	err     error
	lastID  atomic.Value
	summary atomic.Value
}

func (f *fakeSink) Submit(_ context.Context, summary domain.SubmissionSummary) (report.SubmitResult, error) {
	f.calls.Add(1)
	f.lastID.Store(summary.QuizID)
	f.summary.Store(summary)
	if f.err != nil {
		return report.SubmitResult{}, f.err
	}
	return report.SubmitResult{Success: true}, nil
}

func serviceQuestions() []domain.Question {
	return []domain.Question{
		{
			Prompt:           "What is the capital of France?",
			Kind:             domain.KindMultiple,
			CorrectAnswer:    "Paris",
			IncorrectAnswers: []string{"London", "Berlin", "Madrid"},
		},
		{
			Prompt:           "Go was first released in 2009.",
			Kind:             domain.KindBoolean,
			CorrectAnswer:    "True",
			IncorrectAnswers: []string{"False"},
		},
	}
}

func newTestService(source *fakeSource, sink *fakeSink, store *memory.StateStore, opts ...ServiceOption) *QuizService {
	opts = append([]ServiceOption{
		WithTickInterval(time.Hour),
		WithRandSource(func() *rand.Rand { return rand.New(rand.NewSource(42)) }),
	}, opts...)
	return NewQuizService(source, memory.NewSessionRegistry(), sink, store, store, opts...)
}

func TestStartQuizRegistersAndSnapshots(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{questions: serviceQuestions()}
	store := memory.NewStateStore()
	service := newTestService(source, &fakeSink{}, store)

	session, err := service.StartQuiz(ctx, trivia.DefaultRequest())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if got := session.Phase(); got != engine.PhaseInProgress {
		t.Fatalf("expected InProgress, got %s", got)
	}
	if len(session.ID()) != 7 {
		t.Fatalf("expected 7-char quiz id, got %q", session.ID())
	}

	if _, err := service.Session(session.ID()); err != nil {
		t.Fatalf("session not registered: %v", err)
	}
	if _, ok, _ := store.LoadSnapshot(ctx, session.ID()); !ok {
		t.Fatalf("expected initial snapshot saved")
	}
}

func TestStartQuizPropagatesAcquisitionError(t *testing.T) {
	source := &fakeSource{err: domain.ErrRateLimited}
	service := newTestService(source, &fakeSink{}, memory.NewStateStore())

	_, err := service.StartQuiz(context.Background(), trivia.DefaultRequest())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestStartQuizRejectsEmptyBatch(t *testing.T) {
	service := newTestService(&fakeSource{}, &fakeSink{}, memory.NewStateStore())

	_, err := service.StartQuiz(context.Background(), trivia.DefaultRequest())
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestSubmitFlow(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	store := memory.NewStateStore()
	service := newTestService(&fakeSource{questions: serviceQuestions()}, sink, store)

	session, err := service.StartQuiz(ctx, trivia.DefaultRequest())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	quizID := session.ID()

	session.SelectAnswer("Paris")
	session.Next()
	session.SelectAnswer("False")

	summary, err := service.Submit(ctx, quizID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.UserMarks != 1 || summary.TotalMarks != 2 {
		t.Fatalf("unexpected marks: %+v", summary)
	}
	if summary.Accuracy != 50 {
		t.Fatalf("expected accuracy 50, got %d", summary.Accuracy)
	}

	if sink.calls.Load() != 1 {
		t.Fatalf("expected one report POST, got %d", sink.calls.Load())
	}
	if got := sink.lastID.Load(); got != quizID {
		t.Fatalf("sink saw quiz id %v, want %s", got, quizID)
	}

	stored, ok, err := service.LatestComparison(ctx)
	if err != nil || !ok {
		t.Fatalf("latest comparison: ok=%v err=%v", ok, err)
	}
	if len(stored.PerQuestion) != 2 {
		t.Fatalf("expected 2 comparison entries, got %d", len(stored.PerQuestion))
	}

	if _, ok, _ := store.LoadSnapshot(ctx, quizID); ok {
		t.Fatalf("snapshot must be cleared on submit")
	}
	if _, err := service.Session(quizID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("session must be deregistered, got %v", err)
	}
}

func TestSubmitSurvivesPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{err: domain.ErrPersistence}
	service := newTestService(&fakeSource{questions: serviceQuestions()}, sink, memory.NewStateStore())

	session, err := service.StartQuiz(ctx, trivia.DefaultRequest())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	session.SelectAnswer("Paris")

	summary, err := service.Submit(ctx, session.ID())
	if err != nil {
		t.Fatalf("submit must not fail on a sink error, got %v", err)
	}
	if summary.UserMarks != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if sink.calls.Load() != 1 {
		t.Fatalf("expected the sink to be attempted once, got %d", sink.calls.Load())
	}
}

func TestResumeFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	service := newTestService(&fakeSource{questions: serviceQuestions()}, &fakeSink{}, store)

	session, err := service.StartQuiz(ctx, trivia.DefaultRequest())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	quizID := session.ID()
	session.SelectAnswer("Paris")
	session.Next()
	if err := service.SaveProgress(ctx, quizID); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	storedOptions := session.Options(0)

	// Simulate a restart: the registry forgets the live session.
	restarted := newTestService(&fakeSource{questions: serviceQuestions()}, &fakeSink{}, store)
	resumed, err := restarted.Resume(ctx, quizID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.CurrentIndex() != 1 {
		t.Fatalf("expected restored pointer 1, got %d", resumed.CurrentIndex())
	}
	if answer, ok := resumed.Answer(0); !ok || answer != "Paris" {
		t.Fatalf("expected restored answer, got %q ok=%v", answer, ok)
	}
	got := resumed.Options(0)
	for i := range storedOptions {
		if got[i] != storedOptions[i] {
			t.Fatalf("option order changed across resume: %v vs %v", got, storedOptions)
		}
	}
	if got := resumed.Phase(); got != engine.PhaseInProgress {
		t.Fatalf("expected resumed session InProgress, got %s", got)
	}
}

func TestResumeUnknownQuiz(t *testing.T) {
	service := newTestService(&fakeSource{questions: serviceQuestions()}, &fakeSink{}, memory.NewStateStore())
	_, err := service.Resume(context.Background(), "NOPE123")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExpiryAutoSubmitsOnce(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	service := newTestService(&fakeSource{questions: serviceQuestions()}, sink, memory.NewStateStore(),
		WithTickInterval(time.Millisecond), WithTotalSeconds(2))

	session, err := service.StartQuiz(ctx, trivia.DefaultRequest())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	session.SelectAnswer("Paris")

	deadline := time.After(2 * time.Second)
	for sink.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("expiry never auto-submitted")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	time.Sleep(20 * time.Millisecond)
	if got := sink.calls.Load(); got != 1 {
		t.Fatalf("expected one auto-submit, got %d", got)
	}

	summary := sink.summary.Load().(domain.SubmissionSummary)
	if summary.TimeSpent != 2 {
		t.Fatalf("expected the full 2s budget spent, got %d", summary.TimeSpent)
	}
}
