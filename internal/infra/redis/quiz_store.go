package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"quizflow/internal/domain"
)

const quizzesKey = keyPrefix + "quizzes"

// QuizStore is the local fallback for quiz headers when no relational store is
// configured. Quizzes live in a single list, newest first.
type QuizStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewQuizStore(client *redis.Client) *QuizStore {
	return &QuizStore{client: client, clock: time.Now}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = s.clock()
	}
	payload, err := json.Marshal(quiz)
	if err != nil {
		return domain.Quiz{}, errors.Wrap(err, "encode quiz")
	}
	if err := s.client.LPush(ctx, quizzesKey, payload).Err(); err != nil {
		return domain.Quiz{}, errors.Wrap(err, "store quiz")
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, 0, len(all))
	for _, q := range all {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	all, err := s.all(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	for _, q := range all {
		if q.ID == quizID {
			return q, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *QuizStore) all(ctx context.Context) ([]domain.Quiz, error) {
	raw, err := s.client.LRange(ctx, quizzesKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read quizzes")
	}
	out := make([]domain.Quiz, 0, len(raw))
	for _, entry := range raw {
		var q domain.Quiz
		if err := json.Unmarshal([]byte(entry), &q); err != nil {
			return nil, errors.Wrap(err, "decode quiz")
		}
		out = append(out, q)
	}
	return out, nil
}
