package app

import (
	"context"
	"fmt"
	"strings"

	"quizflow/internal/domain"
)

// QuizStore persists quiz headers (relational store, or the local fallback).
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	// ListQuizzes returns the owner's quizzes, newest first.
	ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuestionStore reads and writes questions with their options.
type QuestionStore interface {
	// ListQuestions returns items ordered by question and option order numbers.
	// A quiz without questions yields an empty slice, not an error.
	ListQuestions(ctx context.Context, quizID string) ([]domain.Item, error)
	CreateQuestion(ctx context.Context, question domain.Question, options []domain.Option) (domain.Item, error)
	DeleteQuestion(ctx context.Context, quizID, questionID string) error
}

// AttemptStore persists attempts and per-question responses of authenticated participants.
type AttemptStore interface {
	StartAttempt(ctx context.Context, quizID, studentID string) (domain.Attempt, error)
	SubmitAttempt(ctx context.Context, attemptID string, totalScore, durationSeconds int) error
	SaveResponse(ctx context.Context, resp domain.Response) error
	// GetAttempt returns domain.ErrAttemptNotFound for an unknown id.
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	// ListAttempts returns attempts of a quiz, most recently started first.
	ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error)
	ListResponses(ctx context.Context, attemptID string) ([]domain.Response, error)
}

// LocalStore is the device-scoped key-value store: completion guards and the anonymous response log.
// The guard is advisory only; clearing the store or changing the name bypasses it.
type LocalStore interface {
	IsCompleted(ctx context.Context, quizID, name string) (bool, error)
	MarkCompleted(ctx context.Context, quizID, name string) error
	AppendSubmission(ctx context.Context, quizID string, sub domain.LocalSubmission) error
	// ListSubmissions returns the log newest first.
	ListSubmissions(ctx context.Context, quizID string) ([]domain.LocalSubmission, error)
}

// Notifier delivers toasts to the participant. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice)
}

// QuizService holds the authoring and results use cases.
type QuizService struct {
	quizzes   QuizStore
	questions QuestionStore
	attempts  AttemptStore
	local     LocalStore
}

func NewQuizService(quizzes QuizStore, questions QuestionStore, attempts AttemptStore, local LocalStore) *QuizService {
	return &QuizService{quizzes: quizzes, questions: questions, attempts: attempts, local: local}
}

// QuizInput is the authoring payload for a new quiz.
type QuizInput struct {
	Name            string
	Description     string
	DurationMinutes int
	QuestionType    domain.QuizKind
}

// CreateQuiz validates and stores a quiz owned by the caller.
func (s *QuizService) CreateQuiz(ctx context.Context, who domain.Principal, in QuizInput) (domain.Quiz, error) {
	if !who.Authenticated() {
		return domain.Quiz{}, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(in.Name)
	switch {
	case len([]rune(name)) < 3:
		return domain.Quiz{}, fmt.Errorf("%w: name needs at least 3 characters", domain.ErrInvalidQuiz)
	case len([]rune(in.Description)) > 500:
		return domain.Quiz{}, fmt.Errorf("%w: description too long", domain.ErrInvalidQuiz)
	case in.DurationMinutes <= 0:
		return domain.Quiz{}, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidQuiz)
	case !in.QuestionType.Valid():
		return domain.Quiz{}, fmt.Errorf("%w: unknown question type %q", domain.ErrInvalidQuiz, in.QuestionType)
	}

	quiz := domain.Quiz{
		OwnerID:         who.AccountID,
		Name:            name,
		DurationMinutes: in.DurationMinutes,
		QuestionType:    in.QuestionType,
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		quiz.Description = &desc
	}
	return s.quizzes.CreateQuiz(ctx, quiz)
}

func (s *QuizService) ListQuizzes(ctx context.Context, who domain.Principal) ([]domain.Quiz, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.quizzes.ListQuizzes(ctx, who.AccountID)
}

// GetQuiz is public: students need the quiz title on the join page.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" {
		return domain.Quiz{}, domain.ErrMissingQuizID
	}
	return s.quizzes.GetQuiz(ctx, quizID)
}

// ListQuestions returns the full items, correctness flags included, to the quiz owner.
func (s *QuizService) ListQuestions(ctx context.Context, who domain.Principal, quizID string) ([]domain.Item, error) {
	if _, err := s.ownedQuiz(ctx, who, quizID); err != nil {
		return nil, err
	}
	return s.questions.ListQuestions(ctx, quizID)
}

// QuestionInput is the authoring payload for a new question.
type QuestionInput struct {
	Type    domain.QuestionType
	Content string
	Points  int
	// OrderNo of zero appends after the last question.
	OrderNo int
	Options []OptionInput
}

type OptionInput struct {
	Content   string
	IsCorrect bool
}

// AddQuestion appends a question to a quiz the caller owns.
// Options are only kept for multiple_choice; blank options are dropped.
func (s *QuizService) AddQuestion(ctx context.Context, who domain.Principal, quizID string, in QuestionInput) (domain.Item, error) {
	if _, err := s.ownedQuiz(ctx, who, quizID); err != nil {
		return domain.Item{}, err
	}
	content := strings.TrimSpace(in.Content)
	switch {
	case !in.Type.Valid():
		return domain.Item{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidQuestion, in.Type)
	case len([]rune(content)) < 3:
		return domain.Item{}, fmt.Errorf("%w: content needs at least 3 characters", domain.ErrInvalidQuestion)
	case in.Points < 0:
		return domain.Item{}, fmt.Errorf("%w: points must not be negative", domain.ErrInvalidQuestion)
	}

	order := in.OrderNo
	if order <= 0 {
		existing, err := s.questions.ListQuestions(ctx, quizID)
		if err != nil {
			return domain.Item{}, err
		}
		order = nextOrderNo(existing)
	}

	question := domain.Question{
		QuizID:  quizID,
		Type:    in.Type,
		Content: content,
		Points:  in.Points,
		OrderNo: order,
	}
	var options []domain.Option
	if in.Type == domain.MultipleChoice {
		for _, opt := range in.Options {
			text := strings.TrimSpace(opt.Content)
			if text == "" {
				continue
			}
			options = append(options, domain.Option{Content: text, IsCorrect: opt.IsCorrect, OrderNo: len(options) + 1})
		}
	}
	return s.questions.CreateQuestion(ctx, question, options)
}

func (s *QuizService) DeleteQuestion(ctx context.Context, who domain.Principal, quizID, questionID string) error {
	if _, err := s.ownedQuiz(ctx, who, quizID); err != nil {
		return err
	}
	return s.questions.DeleteQuestion(ctx, quizID, questionID)
}

// ListAttempts returns the attempts of an owned quiz, most recently started first.
func (s *QuizService) ListAttempts(ctx context.Context, who domain.Principal, quizID string) ([]domain.Attempt, error) {
	if _, err := s.ownedQuiz(ctx, who, quizID); err != nil {
		return nil, err
	}
	return s.attempts.ListAttempts(ctx, quizID)
}

// ListResponses returns the answers of one attempt, visible only to the owner of its quiz.
func (s *QuizService) ListResponses(ctx context.Context, who domain.Principal, attemptID string) ([]domain.Response, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedQuiz(ctx, who, attempt.QuizID); err != nil {
		return nil, err
	}
	return s.attempts.ListResponses(ctx, attemptID)
}

// ListSubmissions returns the anonymous response log of an owned quiz.
func (s *QuizService) ListSubmissions(ctx context.Context, who domain.Principal, quizID string) ([]domain.LocalSubmission, error) {
	if _, err := s.ownedQuiz(ctx, who, quizID); err != nil {
		return nil, err
	}
	return s.local.ListSubmissions(ctx, quizID)
}

func (s *QuizService) ownedQuiz(ctx context.Context, who domain.Principal, quizID string) (domain.Quiz, error) {
	if !who.Authenticated() {
		return domain.Quiz{}, domain.ErrUnauthorized
	}
	if quizID == "" {
		return domain.Quiz{}, domain.ErrMissingQuizID
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != who.AccountID {
		return domain.Quiz{}, domain.ErrUnauthorized
	}
	return quiz, nil
}

func nextOrderNo(items []domain.Item) int {
	last := 0
	for _, it := range items {
		if it.Question.OrderNo > last {
			last = it.Question.OrderNo
		}
	}
	return last + 1
}
