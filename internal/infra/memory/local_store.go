package memory

import (
	"context"
	"sync"

	"quizflow/internal/domain"
)

// LocalStore is the in-process flavour of the device-local store:
// completion guards plus the anonymous response log.
type LocalStore struct {
	mu          sync.RWMutex
	completed   map[guardKey]struct{}
	submissions map[string][]domain.LocalSubmission
}

type guardKey struct {
	quizID string
	name   string
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		completed:   make(map[guardKey]struct{}),
		submissions: make(map[string][]domain.LocalSubmission),
	}
}

func (s *LocalStore) IsCompleted(_ context.Context, quizID, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completed[guardKey{quizID, name}]
	return ok, nil
}

func (s *LocalStore) MarkCompleted(_ context.Context, quizID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[guardKey{quizID, name}] = struct{}{}
	return nil
}

func (s *LocalStore) AppendSubmission(_ context.Context, quizID string, sub domain.LocalSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[quizID] = append([]domain.LocalSubmission{sub}, s.submissions[quizID]...)
	return nil
}

func (s *LocalStore) ListSubmissions(_ context.Context, quizID string) ([]domain.LocalSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LocalSubmission{}, s.submissions[quizID]...), nil
}
