package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"quizify-engine/internal/app"
	"quizify-engine/internal/domain"
	"quizify-engine/internal/engine"
	"quizify-engine/internal/report"
	"quizify-engine/internal/trivia"
)

// ReportReader exposes the backend aggregates the UI reads back.
type ReportReader interface {
	Dashboard(ctx context.Context) (report.Dashboard, error)
	History(ctx context.Context, page, limit int) (report.HistoryPage, error)
}

// Handler is the REST surface over the session engine.
type Handler struct {
	service *app.QuizService
	reports ReportReader
}

func NewHandler(service *app.QuizService, reports ReportReader) *Handler {
	return &Handler{service: service, reports: reports}
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes", h.createQuiz)
	mux.HandleFunc("GET /quizzes/{id}", h.getQuiz)
	mux.HandleFunc("POST /quizzes/{id}/answer", h.answer)
	mux.HandleFunc("POST /quizzes/{id}/goto", h.goTo)
	mux.HandleFunc("POST /quizzes/{id}/next", h.next)
	mux.HandleFunc("POST /quizzes/{id}/previous", h.previous)
	mux.HandleFunc("POST /quizzes/{id}/review", h.toggleReview)
	mux.HandleFunc("POST /quizzes/{id}/submit", h.submit)
	mux.HandleFunc("GET /results/latest", h.latestComparison)
	mux.HandleFunc("GET /dashboard", h.dashboard)
	mux.HandleFunc("GET /performance", h.history)
}

type questionView struct {
	Prompt     string              `json:"question"`
	Options    []string            `json:"options"`
	Category   string              `json:"category"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Kind       domain.QuestionKind `json:"type"`
	Answer     *string             `json:"answer"`
	Marked     bool                `json:"markedForReview"`
}

type stateView struct {
	QuizID         string         `json:"quizId"`
	Phase          string         `json:"phase"`
	CurrentIndex   int            `json:"currentIndex"`
	TotalQuestions int            `json:"totalQuestions"`
	Attempted      int            `json:"attemptedQuestions"`
	Remaining      int            `json:"remainingSeconds"`
	Formatted      string         `json:"formattedTime"`
	Questions      []questionView `json:"questions"`
}

// newStateView projects a session for clients. Correct answers never leave
// the engine before submit.
func newStateView(session *engine.Session) stateView {
	questions := session.Questions()
	views := make([]questionView, len(questions))
	for i, q := range questions {
		view := questionView{
			Prompt:     q.Prompt,
			Options:    session.Options(i),
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Kind:       q.Kind,
			Marked:     session.Marked(i),
		}
		if answer, ok := session.Answer(i); ok {
			view.Answer = &answer
		}
		views[i] = view
	}
	return stateView{
		QuizID:         session.ID(),
		Phase:          session.Phase().String(),
		CurrentIndex:   session.CurrentIndex(),
		TotalQuestions: len(questions),
		Attempted:      session.Attempted(),
		Remaining:      session.Remaining(),
		Formatted:      session.Formatted(),
		Questions:      views,
	}
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	req := trivia.DefaultRequest()
	// An empty body means defaults; a malformed one is a client error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid quiz request", http.StatusBadRequest)
		return
	}
	if req.Amount < 1 || req.Amount > 50 {
		http.Error(w, "amount must be between 1 and 50", http.StatusBadRequest)
		return
	}

	session, err := h.service.StartQuiz(r.Context(), req)
	if err != nil {
		writeAcquisitionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStateView(session))
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(session))
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Option string `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid answer payload", http.StatusBadRequest)
		return
	}
	h.mutate(w, r, func(session *engine.Session) {
		session.SelectAnswer(payload.Option)
	})
}

func (h *Handler) goTo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid goto payload", http.StatusBadRequest)
		return
	}
	h.mutate(w, r, func(session *engine.Session) {
		session.GoTo(payload.Index)
	})
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(session *engine.Session) { session.Next() })
}

func (h *Handler) previous(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(session *engine.Session) { session.Previous() })
}

func (h *Handler) toggleReview(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(session *engine.Session) { session.ToggleReview() })
}

// mutate runs op on the session, saves progress, and returns the new state.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(*engine.Session)) {
	quizID := r.PathValue("id")
	session, err := h.service.Session(quizID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	op(session)
	if err := h.service.SaveProgress(r.Context(), quizID); err != nil {
		log.Printf("save progress failed for %s: %v", quizID, err)
	}
	writeJSON(w, http.StatusOK, newStateView(session))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, domain.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) latestComparison(w http.ResponseWriter, r *http.Request) {
	summary, ok, err := h.service.LatestComparison(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no results yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Summary     domain.SubmissionSummary `json:"summary"`
		PerQuestion []domain.ComparisonEntry `json:"perQuestionComparison"`
	}{summary, summary.PerQuestion})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reports.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	history, err := h.reports.History(r.Context(), page, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// writeAcquisitionError maps the error taxonomy to statuses so the UI can
// offer a retry affordance; rate limiting keeps its recognizable marker.
func writeAcquisitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrNoResults), errors.Is(err, domain.ErrInvalidParameter):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
