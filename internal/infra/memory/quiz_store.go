package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizflow/internal/domain"
)

// QuizStore keeps quiz headers in process. It backs the local fallback when no
// relational store is configured and is handy in tests.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes []domain.Quiz // newest first
	clock   func() time.Time
}

func NewQuizStore() *QuizStore {
	return &QuizStore{clock: time.Now}
}

// NewQuizStoreWith seeds the store; later entries are treated as older.
func NewQuizStoreWith(quizzes ...domain.Quiz) *QuizStore {
	s := NewQuizStore()
	s.quizzes = append(s.quizzes, quizzes...)
	return s
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = s.clock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes = append([]domain.Quiz{quiz}, s.quizzes...)
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quizzes {
		if q.ID == quizID {
			return q, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
