package http

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizify-engine/internal/app"
	"quizify-engine/internal/domain"
	"quizify-engine/internal/infra/memory"
	"quizify-engine/internal/report"
	"quizify-engine/internal/trivia"
)

type stubSource struct {
	questions []domain.Question
	err       error
}

func (s *stubSource) Acquire(_ context.Context, _ trivia.Request) ([]domain.Question, error) {
	return s.questions, s.err
}

type stubSink struct{}

func (stubSink) Submit(_ context.Context, _ domain.SubmissionSummary) (report.SubmitResult, error) {
	return report.SubmitResult{Success: true}, nil
}

type stubReports struct {
	dashboard report.Dashboard
	history   report.HistoryPage
	err       error
}

func (s *stubReports) Dashboard(_ context.Context) (report.Dashboard, error) {
	return s.dashboard, s.err
}

func (s *stubReports) History(_ context.Context, page, limit int) (report.HistoryPage, error) {
	history := s.history
	history.Data.CurrentPage = page
	return history, s.err
}

func handlerQuestions() []domain.Question {
	return []domain.Question{
		{
			Prompt:           "What is the capital of France?",
			Kind:             domain.KindMultiple,
			Category:         "Geography",
			Difficulty:       domain.DifficultyEasy,
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

func newTestService(t *testing.T, source *stubSource) *app.QuizService {
	t.Helper()
	store := memory.NewStateStore()
	return app.NewQuizService(source, memory.NewSessionRegistry(), stubSink{}, store, store,
		app.WithTickInterval(time.Hour),
		app.WithRandSource(func() *rand.Rand { return rand.New(rand.NewSource(42)) }),
	)
}

func newTestMux(t *testing.T, source *stubSource, reports ReportReader) (*http.ServeMux, *app.QuizService) {
	t.Helper()
	service := newTestService(t, source)
	mux := http.NewServeMux()
	NewHandler(service, reports).Register(mux)
	return mux, service
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createQuiz(t *testing.T, mux *http.ServeMux) stateView {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/quizzes", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quiz: status %d, body %s", rec.Code, rec.Body.String())
	}
	var state stateView
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestCreateQuizWithDefaults(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})
	state := createQuiz(t, mux)

	if len(state.QuizID) != 7 {
		t.Fatalf("expected 7-char quiz id, got %q", state.QuizID)
	}
	if state.Phase != "in_progress" {
		t.Fatalf("expected in_progress, got %q", state.Phase)
	}
	if state.TotalQuestions != 2 || len(state.Questions) != 2 {
		t.Fatalf("unexpected question count: %+v", state)
	}
	if len(state.Questions[0].Options) != 4 {
		t.Fatalf("expected 4 options, got %v", state.Questions[0].Options)
	}
	if opts := state.Questions[1].Options; len(opts) != 2 || opts[0] != "True" || opts[1] != "False" {
		t.Fatalf("expected fixed True/False order, got %v", opts)
	}
}

func TestCreateQuizNeverExposesCorrectAnswers(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})
	rec := doJSON(t, mux, http.MethodPost, "/quizzes", "")
	if strings.Contains(rec.Body.String(), "correct_answer") || strings.Contains(rec.Body.String(), "correctAnswer") {
		t.Fatalf("correct answers leaked: %s", rec.Body.String())
	}
}

func TestCreateQuizValidatesAmount(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})
	for _, body := range []string{`{"amount":0}`, `{"amount":51}`, `{"amount":-3}`} {
		rec := doJSON(t, mux, http.MethodPost, "/quizzes", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCreateQuizMapsAcquisitionErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrNoResults, http.StatusBadRequest},
		{domain.ErrInvalidParameter, http.StatusBadRequest},
		{domain.ErrTransport, http.StatusBadGateway},
	}
	for _, tc := range cases {
		mux, _ := newTestMux(t, &stubSource{err: tc.err}, &stubReports{})
		rec := doJSON(t, mux, http.MethodPost, "/quizzes", "")
		if rec.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestGetQuizNotFound(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})
	rec := doJSON(t, mux, http.MethodGet, "/quizzes/NOPE123", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAnswerAndNavigate(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})
	state := createQuiz(t, mux)
	base := "/quizzes/" + state.QuizID

	rec := doJSON(t, mux, http.MethodPost, base+"/answer", `{"option":"Paris"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("answer: status %d", rec.Code)
	}
	var after stateView
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if after.Attempted != 1 {
		t.Fatalf("expected 1 attempted, got %d", after.Attempted)
	}
	if after.Questions[0].Answer == nil || *after.Questions[0].Answer != "Paris" {
		t.Fatalf("answer not reflected: %+v", after.Questions[0])
	}

	rec = doJSON(t, mux, http.MethodPost, base+"/next", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if after.CurrentIndex != 1 {
		t.Fatalf("expected pointer 1, got %d", after.CurrentIndex)
	}

	rec = doJSON(t, mux, http.MethodPost, base+"/review", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if !after.Questions[1].Marked {
		t.Fatalf("review mark not reflected: %+v", after.Questions[1])
	}

	rec = doJSON(t, mux, http.MethodPost, base+"/goto", `{"index":0}`)
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if after.CurrentIndex != 0 {
		t.Fatalf("expected pointer back at 0, got %d", after.CurrentIndex)
	}

	rec = doJSON(t, mux, http.MethodPost, base+"/previous", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &after)
	if after.CurrentIndex != 0 {
		t.Fatalf("expected pointer clamped at 0, got %d", after.CurrentIndex)
	}
}

func TestSubmitEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})
	state := createQuiz(t, mux)
	base := "/quizzes/" + state.QuizID

	doJSON(t, mux, http.MethodPost, base+"/answer", `{"option":"Paris"}`)

	rec := doJSON(t, mux, http.MethodPost, base+"/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d, body %s", rec.Code, rec.Body.String())
	}
	var summary domain.SubmissionSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.UserMarks != 1 || summary.TotalMarks != 2 || summary.Accuracy != 50 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// The session is deregistered after submit.
	rec = doJSON(t, mux, http.MethodPost, base+"/submit", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after deregistration, got %d", rec.Code)
	}
}

func TestLatestComparison(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})

	rec := doJSON(t, mux, http.MethodGet, "/results/latest", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any submit, got %d", rec.Code)
	}

	state := createQuiz(t, mux)
	doJSON(t, mux, http.MethodPost, "/quizzes/"+state.QuizID+"/submit", "")

	rec = doJSON(t, mux, http.MethodGet, "/results/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Summary     domain.SubmissionSummary `json:"summary"`
		PerQuestion []domain.ComparisonEntry `json:"perQuestionComparison"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode comparison: %v", err)
	}
	if payload.Summary.QuizID != state.QuizID {
		t.Fatalf("unexpected quiz id %q", payload.Summary.QuizID)
	}
	if len(payload.PerQuestion) != 2 {
		t.Fatalf("expected 2 comparison entries, got %d", len(payload.PerQuestion))
	}
}

func TestDashboardProxy(t *testing.T) {
	reports := &stubReports{}
	reports.dashboard.Success = true
	reports.dashboard.Data.TotalQuizzes = 7
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, reports)

	rec := doJSON(t, mux, http.MethodGet, "/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d", rec.Code)
	}
	var dashboard report.Dashboard
	_ = json.Unmarshal(rec.Body.Bytes(), &dashboard)
	if dashboard.Data.TotalQuizzes != 7 {
		t.Fatalf("unexpected dashboard %+v", dashboard)
	}
}

func TestHistoryQueryDefaults(t *testing.T) {
	mux, _ := newTestMux(t, &stubSource{questions: handlerQuestions()}, &stubReports{})

	rec := doJSON(t, mux, http.MethodGet, "/performance?page=3&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status %d", rec.Code)
	}
	var page report.HistoryPage
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Data.CurrentPage != 3 {
		t.Fatalf("expected page 3 forwarded, got %d", page.Data.CurrentPage)
	}

	rec = doJSON(t, mux, http.MethodGet, "/performance?page=bogus", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Data.CurrentPage != 1 {
		t.Fatalf("expected fallback page 1, got %d", page.Data.CurrentPage)
	}
}
