package domain

// QuestionKind distinguishes multiple-choice from true/false questions.
type QuestionKind string

const (
	KindMultiple QuestionKind = "multiple"
	KindBoolean  QuestionKind = "boolean"
	KindAny      QuestionKind = "any"
)

// Difficulty levels as defined by the trivia provider.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAny    Difficulty = "any"
)

// Question is a single trivia question as delivered by the provider,
// HTML-entity-decoded before use. Immutable once fetched; IncorrectAnswers
// never contains CorrectAnswer.
type Question struct {
	Prompt           string       `json:"question"`
	Kind             QuestionKind `json:"type"`
	Category         string       `json:"category"`
	Difficulty       Difficulty   `json:"difficulty"`
	CorrectAnswer    string       `json:"correct_answer"`
	IncorrectAnswers []string     `json:"incorrect_answers"`
}

// Submission is the payload frozen at submit time, before scoring.
// Answers maps question index to the selected option; unanswered indexes
// carry a nil entry.
type Submission struct {
	QuizID             string          `json:"quizId"`
	Answers            map[int]*string `json:"answers"`
	MarkedForReview    []int           `json:"markedForReview"`
	TimeSpent          int             `json:"timeSpent"`
	TotalQuestions     int             `json:"totalQuestions"`
	AttemptedQuestions int             `json:"attemptedQuestions"`
}

// ComparisonEntry pairs one question with the user's recorded answer.
type ComparisonEntry struct {
	Question      string       `json:"question"`
	CorrectAnswer string       `json:"correctAnswer"`
	UserAnswer    *string      `json:"userAnswer"`
	IsCorrect     bool         `json:"isCorrect"`
	Category      string       `json:"category"`
	Difficulty    Difficulty   `json:"difficulty"`
	Kind          QuestionKind `json:"type"`
}

// SubmissionSummary is the write-once performance record built at submit
// time. The flat fields are what gets POSTed to the backend; PerQuestion is
// kept only in the short-lived latest-comparison slot for the results view
// and is excluded from the persisted body.
type SubmissionSummary struct {
	QuizID                 string            `json:"quizId"`
	TotalMarks             int               `json:"totalMarks"`
	UserMarks              int               `json:"userMarks"`
	AttemptedQuestions     int               `json:"attemptedQuestions"`
	NotVisited             int               `json:"notVisited"`
	MarkedForReview        int               `json:"markedForReview"`
	TimeSpent              int               `json:"timeSpent"`
	Accuracy               int               `json:"accuracy"`
	AverageTimePerQuestion int               `json:"averageTimePerQuestion"`
	PerQuestion            []ComparisonEntry `json:"-"`
}
