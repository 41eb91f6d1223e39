package domain

import "errors"

var (
	// ErrRateLimited is returned when the provider throttled us and the
	// single retry also failed.
	ErrRateLimited = errors.New("too many requests, provider rate limited")
	// ErrTransport covers non-2xx, non-429 provider responses.
	ErrTransport = errors.New("trivia provider transport error")
	// ErrNoResults maps provider response code 1.
	ErrNoResults = errors.New("no results for the specified parameters")
	// ErrInvalidParameter maps provider response code 2.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrTokenNotFound maps provider response code 3.
	ErrTokenNotFound = errors.New("session token not found")
	// ErrTokenEmpty maps provider response code 4.
	ErrTokenEmpty = errors.New("session token empty")
	// ErrProvider covers unrecognized provider response codes.
	ErrProvider = errors.New("trivia provider error")

	// ErrPersistence indicates the summary POST did not report success.
	// Logged and non-fatal; scoring is already known client-side.
	ErrPersistence = errors.New("failed to persist performance report")

	// ErrSessionNotFound is returned when no session exists for a quiz ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotStarted is returned for submit before the session entered
	// the in-progress phase.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrNoQuestions indicates an empty question set.
	ErrNoQuestions = errors.New("no questions in session")
)
