package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizflow/internal/domain"
)

// QuestionStore keeps questions and options in process.
type QuestionStore struct {
	mu     sync.RWMutex
	byQuiz map[string][]domain.Item
	clock  func() time.Time
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{
		byQuiz: make(map[string][]domain.Item),
		clock:  time.Now,
	}
}

// NewStaticQuestionStore seeds the store with ready-made items (useful for tests/demos).
func NewStaticQuestionStore(items map[string][]domain.Item) *QuestionStore {
	s := NewQuestionStore()
	for quizID, list := range items {
		s.byQuiz[quizID] = append([]domain.Item(nil), list...)
	}
	return s
}

func (s *QuestionStore) ListQuestions(_ context.Context, quizID string) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.byQuiz[quizID]))
	for _, it := range s.byQuiz[quizID] {
		cp := it
		cp.Options = append([]domain.Option(nil), it.Options...)
		sort.SliceStable(cp.Options, func(i, j int) bool { return cp.Options[i].OrderNo < cp.Options[j].OrderNo })
		items = append(items, cp)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Question.OrderNo < items[j].Question.OrderNo })
	return items, nil
}

func (s *QuestionStore) CreateQuestion(_ context.Context, question domain.Question, options []domain.Option) (domain.Item, error) {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = s.clock()
	}
	item := domain.Item{Question: question, Options: make([]domain.Option, 0, len(options))}
	for _, opt := range options {
		if opt.ID == "" {
			opt.ID = uuid.NewString()
		}
		opt.QuestionID = question.ID
		item.Options = append(item.Options, opt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byQuiz[question.QuizID] = append(s.byQuiz[question.QuizID], item)
	return item, nil
}

func (s *QuestionStore) DeleteQuestion(_ context.Context, quizID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byQuiz[quizID]
	for i := range list {
		if list[i].Question.ID == questionID {
			s.byQuiz[quizID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}
