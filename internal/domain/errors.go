package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAttemptNotFound is returned when an attempt id is unknown to the store.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrMissingQuizID is returned when the join link carries no quiz id.
	ErrMissingQuizID = errors.New("quiz id missing from link")
	// ErrCannotStart is returned when the participant name or quiz id is not usable yet.
	ErrCannotStart = errors.New("exam cannot be started")
	// ErrAlreadyCompleted is returned when the completion guard is set for the participant.
	ErrAlreadyCompleted = errors.New("participant already submitted this quiz")
	// ErrNotInProgress is returned for answer edits outside of a running attempt.
	ErrNotInProgress = errors.New("attempt not in progress")
	// ErrAnswerTypeMismatch is returned when the answer variant does not fit the question type.
	ErrAnswerTypeMismatch = errors.New("answer does not match question type")
	// ErrAnswersFrozen is returned for edits made while a submit is in flight.
	ErrAnswersFrozen = errors.New("answers are frozen")
	// ErrInvalidAnswer is returned for a stored answer row that is not exactly one variant.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrInvalidQuestion is returned by authoring calls with an unusable question payload.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidQuiz is returned by authoring calls with an unusable quiz payload.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrUnauthorized is returned when an authoring call has no authenticated principal.
	ErrUnauthorized = errors.New("unauthorized")
)
