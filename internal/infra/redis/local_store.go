package redis

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"quizflow/internal/domain"
)

const keyPrefix = "quizflow:"

// LocalStore keeps completion guards and the anonymous response log in Redis.
//
//	SET   quizflow:completed:{quizID}:{name} true
//	LPUSH quizflow:responses:{quizID} <json submission>
//
// Names arrive already normalised (trimmed, lower case).
type LocalStore struct {
	client *redis.Client
}

func NewLocalStore(client *redis.Client) *LocalStore {
	return &LocalStore{client: client}
}

func (s *LocalStore) IsCompleted(ctx context.Context, quizID, name string) (bool, error) {
	n, err := s.client.Exists(ctx, completedKey(quizID, name)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check completion guard")
	}
	return n > 0, nil
}

func (s *LocalStore) MarkCompleted(ctx context.Context, quizID, name string) error {
	return errors.Wrap(s.client.Set(ctx, completedKey(quizID, name), "true", 0).Err(), "set completion guard")
}

func (s *LocalStore) AppendSubmission(ctx context.Context, quizID string, sub domain.LocalSubmission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return errors.Wrap(err, "encode submission")
	}
	return errors.Wrapf(s.client.LPush(ctx, responsesKey(quizID), payload).Err(), "append submission to quiz %s", quizID)
}

func (s *LocalStore) ListSubmissions(ctx context.Context, quizID string) ([]domain.LocalSubmission, error) {
	raw, err := s.client.LRange(ctx, responsesKey(quizID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read submissions of quiz %s", quizID)
	}
	out := make([]domain.LocalSubmission, 0, len(raw))
	for _, entry := range raw {
		var sub domain.LocalSubmission
		if err := json.Unmarshal([]byte(entry), &sub); err != nil {
			return nil, errors.Wrapf(err, "decode submission of quiz %s", quizID)
		}
		out = append(out, sub)
	}
	return out, nil
}

func completedKey(quizID, name string) string {
	return keyPrefix + "completed:" + quizID + ":" + name
}

func responsesKey(quizID string) string {
	return keyPrefix + "responses:" + quizID
}
