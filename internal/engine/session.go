package engine

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"quizify-engine/internal/domain"
)

// Phase is the session lifecycle state. Illegal combinations of the original
// loading/error/submitting flags are unrepresentable here.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseFailed
	PhaseReady
	PhaseInProgress
	PhaseSubmitting
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseFailed:
		return "failed"
	case PhaseReady:
		return "ready"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Session owns one attempt at a fixed question set: current pointer, answers,
// review flags, the one-shot option shuffle, the countdown, and the
// submission lifecycle. All methods are safe for concurrent use by the
// transport and the timer goroutine.
type Session struct {
	mu        sync.Mutex
	id        string
	phase     Phase
	questions []domain.Question
	current   int
	answers   map[int]string
	marked    map[int]struct{}
	options   map[int][]string
	total     int
	startLeft int
	countdown *Countdown
	frozen    int
	interval  time.Duration
	onExpire  func()
	rnd       *rand.Rand
	cached    domain.Submission
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithRand injects the shuffle randomness source; tests pin a seed here.
func WithRand(rnd *rand.Rand) SessionOption {
	return func(s *Session) { s.rnd = rnd }
}

// WithTickInterval speeds up the countdown in tests.
func WithTickInterval(interval time.Duration) SessionOption {
	return func(s *Session) { s.interval = interval }
}

// WithExpiryHandler registers the callback invoked when the countdown runs
// out. The handler typically routes back into the submit flow.
func WithExpiryHandler(onExpire func()) SessionOption {
	return func(s *Session) { s.onExpire = onExpire }
}

// NewSession seeds a session with an immutable question set. Answers and the
// per-question option shuffle are initialized together in one step and never
// recomputed for the lifetime of the session.
func NewSession(id string, questions []domain.Question, totalSeconds int, opts ...SessionOption) *Session {
	s := &Session{
		id:        id,
		phase:     PhaseReady,
		questions: questions,
		answers:   make(map[int]string),
		marked:    make(map[int]struct{}),
		options:   make(map[int][]string, len(questions)),
		total:     totalSeconds,
		startLeft: totalSeconds,
		interval:  time.Second,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i, q := range questions {
		s.options[i] = s.shuffleOptions(q)
	}
	return s
}

// shuffleOptions computes the presentation order for one question, exactly
// once. Boolean questions keep the fixed True/False order.
func (s *Session) shuffleOptions(q domain.Question) []string {
	if q.Kind == domain.KindBoolean {
		return []string{"True", "False"}
	}
	pool := make([]string, 0, len(q.IncorrectAnswers)+1)
	pool = append(pool, q.CorrectAnswer)
	pool = append(pool, q.IncorrectAnswers...)
	for i := len(pool) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool
}

// ID returns the 7-character quiz ID.
func (s *Session) ID() string { return s.id }

// Phase returns the current lifecycle state.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Questions returns the immutable question set.
func (s *Session) Questions() []domain.Question { return s.questions }

// Start moves Ready to InProgress and sets the countdown ticking.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return
	}
	s.phase = PhaseInProgress
	s.countdown = newCountdownWithInterval(s.startLeft, s.interval, s.onExpire)
}

// CurrentIndex returns the question pointer.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// GoTo moves the pointer to index. Out-of-range requests (keyboard shortcuts
// at the boundary) are silently ignored.
func (s *Session) GoTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(index)
}

// Next advances the pointer, clamped at the last question.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(s.current + 1)
}

// Previous retreats the pointer, clamped at zero.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(s.current - 1)
}

func (s *Session) goToLocked(index int) {
	if s.phase != PhaseInProgress {
		return
	}
	if index < 0 || index >= len(s.questions) {
		return
	}
	s.current = index
}

// SelectAnswer records option for the current question, overwriting any
// prior answer. The pointer does not advance.
func (s *Session) SelectAnswer(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return
	}
	s.answers[s.current] = option
}

// ToggleReview flips the review flag on the current question.
func (s *Session) ToggleReview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return
	}
	if _, ok := s.marked[s.current]; ok {
		delete(s.marked, s.current)
	} else {
		s.marked[s.current] = struct{}{}
	}
}

// Marked reports whether the question at index carries the review flag.
func (s *Session) Marked(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.marked[index]
	return ok
}

// Options returns the cached presentation order for the question at index.
// Repeated reads return the same order.
func (s *Session) Options(index int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options[index]
}

// Answer returns the recorded answer for index, if any.
func (s *Session) Answer(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[index]
	return answer, ok
}

// Attempted counts questions with a recorded answer.
func (s *Session) Attempted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Remaining returns the seconds left; after submit it is the frozen value.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

func (s *Session) remainingLocked() int {
	switch s.phase {
	case PhaseSubmitting, PhaseSubmitted:
		return s.frozen
	case PhaseInProgress:
		return s.countdown.Remaining()
	}
	return s.startLeft
}

// Formatted renders the remaining time as M:SS.
func (s *Session) Formatted() string {
	return formatSeconds(s.Remaining())
}

// Submit freezes the clock and builds the submission payload. The first call
// wins; repeat calls while Submitting or Submitted return the same payload
// with first=false so callers can treat them as no-ops.
func (s *Session) Submit() (domain.Submission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseSubmitting, PhaseSubmitted:
		return s.cached, false, nil
	case PhaseInProgress:
	default:
		return domain.Submission{}, false, domain.ErrSessionNotStarted
	}

	s.frozen = s.countdown.Remaining()
	s.countdown.Stop()
	s.phase = PhaseSubmitting

	answers := make(map[int]*string, len(s.questions))
	for i := range s.questions {
		if answer, ok := s.answers[i]; ok {
			value := answer
			answers[i] = &value
		} else {
			answers[i] = nil
		}
	}

	marked := make([]int, 0, len(s.marked))
	for i := range s.marked {
		marked = append(marked, i)
	}
	sort.Ints(marked)

	s.cached = domain.Submission{
		QuizID:             s.id,
		Answers:            answers,
		MarkedForReview:    marked,
		TimeSpent:          s.total - s.frozen,
		TotalQuestions:     len(s.questions),
		AttemptedQuestions: len(s.answers),
	}
	return s.cached, true, nil
}

// MarkSubmitted finalizes the lifecycle once the summary has been handed off.
func (s *Session) MarkSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitting {
		s.phase = PhaseSubmitted
	}
}

// Pause and Resume forward to the countdown; elapsed time in scoring stays
// consistent because it is derived from the countdown, never wall clock.
func (s *Session) Pause() {
	if c := s.clock(); c != nil {
		c.Pause()
	}
}

// Resume restarts a paused countdown.
func (s *Session) Resume() {
	if c := s.clock(); c != nil {
		c.Resume()
	}
}

func (s *Session) clock() *Countdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown
}
