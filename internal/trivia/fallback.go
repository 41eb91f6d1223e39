package trivia

import "quizify-engine/internal/domain"

// FallbackBank returns the bundled sample questions used when the live
// provider is unavailable or throttled. Ten questions spanning both kinds
// and all three difficulties.
func FallbackBank() []domain.Question {
	return []domain.Question{
		{
			Kind:             domain.KindBoolean,
			Difficulty:       domain.DifficultyEasy,
			Category:         "General Knowledge",
			Prompt:           "The Great Wall of China is visible from space with the naked eye.",
			CorrectAnswer:    "False",
			IncorrectAnswers: []string{"True"},
		},
		{
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyMedium,
			Category:         "Science & Nature",
			Prompt:           "What is the chemical symbol for gold?",
			CorrectAnswer:    "Au",
			IncorrectAnswers: []string{"Go", "Gd", "Ag"},
		},
		{
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyEasy,
			Category:         "Entertainment: Music",
			Prompt:           "Who wrote the song 'Imagine'?",
			CorrectAnswer:    "John Lennon",
			IncorrectAnswers: []string{"Paul McCartney", "George Harrison", "Ringo Starr"},
		},
		{
			Kind:             domain.KindBoolean,
			Difficulty:       domain.DifficultyMedium,
			Category:         "History",
			Prompt:           "The United States declared independence from Great Britain on July 4th, 1776.",
			CorrectAnswer:    "True",
			IncorrectAnswers: []string{"False"},
		},
		{
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyHard,
			Category:         "Science & Nature",
			Prompt:           "What is the speed of light in a vacuum?",
			CorrectAnswer:    "299,792,458 meters per second",
			IncorrectAnswers: []string{"300,000,000 meters per second", "299,000,000 meters per second", "301,000,000 meters per second"},
		},
		{
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyEasy,
			Category:         "Sports",
			Prompt:           "Which country won the 2018 FIFA World Cup?",
			CorrectAnswer:    "France",
			IncorrectAnswers: []string{"Brazil", "Germany", "Argentina"},
		},
		{
			Kind:             domain.KindBoolean,
			Difficulty:       domain.DifficultyMedium,
			Category:         "Geography",
			Prompt:           "The Amazon River is the longest river in the world.",
			CorrectAnswer:    "False",
			IncorrectAnswers: []string{"True"},
		},
		{
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyHard,
			Category:         "Entertainment: Film",
			Prompt:           "Which film won the Academy Award for Best Picture in 1994?",
			CorrectAnswer:    "Forrest Gump",
			IncorrectAnswers: []string{"The Shawshank Redemption", "Pulp Fiction", "The Lion King"},
		},
		{
			Kind:             domain.KindMultiple,
			Difficulty:       domain.DifficultyEasy,
			Category:         "General Knowledge",
			Prompt:           "What is the capital of France?",
			CorrectAnswer:    "Paris",
			IncorrectAnswers: []string{"London", "Berlin", "Madrid"},
		},
		{
			Kind:             domain.KindBoolean,
			Difficulty:       domain.DifficultyMedium,
			Category:         "Science & Nature",
			Prompt:           "The human brain contains approximately 100 billion neurons.",
			CorrectAnswer:    "True",
			IncorrectAnswers: []string{"False"},
		},
	}
}
