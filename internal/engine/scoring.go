package engine

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"quizify-engine/internal/domain"
)

// BuildSummary compares the submitted answers to the correct answers and
// derives the aggregate metrics. Deterministic given fixed inputs; the
// comparison list follows original question order regardless of how the user
// navigated.
func BuildSummary(questions []domain.Question, sub domain.Submission) domain.SubmissionSummary {
	quizID := sub.QuizID
	if quizID == "" {
		quizID = NewQuizID()
	}

	totalMarks := len(questions)
	userMarks := 0
	comparison := make([]domain.ComparisonEntry, 0, totalMarks)
	for i, q := range questions {
		answer := sub.Answers[i]
		correct := answer != nil && *answer == q.CorrectAnswer
		if correct {
			userMarks++
		}
		comparison = append(comparison, domain.ComparisonEntry{
			Question:      q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answer,
			IsCorrect:     correct,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Kind:          q.Kind,
		})
	}

	notVisited := totalMarks - sub.AttemptedQuestions
	if notVisited < 0 {
		notVisited = 0
	}

	accuracy := 0
	if totalMarks > 0 {
		accuracy = int(math.Round(float64(userMarks) / float64(totalMarks) * 100))
	}
	averageTime := 0
	if sub.AttemptedQuestions > 0 {
		averageTime = int(math.Round(float64(sub.TimeSpent) / float64(sub.AttemptedQuestions)))
	}

	return domain.SubmissionSummary{
		QuizID:                 quizID,
		TotalMarks:             totalMarks,
		UserMarks:              userMarks,
		AttemptedQuestions:     sub.AttemptedQuestions,
		NotVisited:             notVisited,
		MarkedForReview:        len(sub.MarkedForReview),
		TimeSpent:              sub.TimeSpent,
		Accuracy:               accuracy,
		AverageTimePerQuestion: averageTime,
		PerQuestion:            comparison,
	}
}

const quizIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const quizIDLength = 7

var (
	idMu  sync.Mutex
	idRnd = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewQuizID generates a 7-character uppercase alphanumeric token.
func NewQuizID() string {
	idMu.Lock()
	defer idMu.Unlock()
	id := make([]byte, quizIDLength)
	for i := range id {
		id[i] = quizIDAlphabet[idRnd.Intn(len(quizIDAlphabet))]
	}
	return string(id)
}
