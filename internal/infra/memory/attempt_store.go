package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizflow/internal/domain"
)

// AttemptStore keeps attempts and responses in process.
type AttemptStore struct {
	mu        sync.RWMutex
	clock     func() time.Time
	attempts  map[string]*domain.Attempt
	order     []string
	responses map[string][]domain.Response
}

func NewAttemptStore() *AttemptStore {
	return NewAttemptStoreWithClock(time.Now)
}

// NewAttemptStoreWithClock is test-only for deterministic timestamps.
func NewAttemptStoreWithClock(now func() time.Time) *AttemptStore {
	return &AttemptStore{
		clock:     now,
		attempts:  make(map[string]*domain.Attempt),
		responses: make(map[string][]domain.Response),
	}
}

func (s *AttemptStore) StartAttempt(_ context.Context, quizID, studentID string) (domain.Attempt, error) {
	a := &domain.Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt: s.clock(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[a.ID] = a
	s.order = append(s.order, a.ID)
	return *a, nil
}

func (s *AttemptStore) SubmitAttempt(_ context.Context, attemptID string, totalScore, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	now := s.clock()
	a.SubmittedAt = &now
	a.TotalScore = &totalScore
	a.DurationSeconds = &durationSeconds
	return nil
}

func (s *AttemptStore) SaveResponse(_ context.Context, resp domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[resp.AttemptID]; !ok {
		return domain.ErrAttemptNotFound
	}
	resp.Answer = domain.CloneAnswer(resp.Answer)
	s.responses[resp.AttemptID] = append(s.responses[resp.AttemptID], resp)
	return nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return *a, nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, quizID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	// walk backwards so equal start times keep newest-inserted first
	for i := len(s.order) - 1; i >= 0; i-- {
		a := s.attempts[s.order[i]]
		if a.QuizID == quizID {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *AttemptStore) ListResponses(_ context.Context, attemptID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Response{}, s.responses[attemptID]...), nil
}
