package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizflow/internal/app"
	"quizflow/internal/domain"
)

// QuestionCache keeps the question set of a quiz in Redis and falls back to the
// backing store on a miss. Items, options and correctness flags included, are stored
// as one JSON document:
//
//	SET quizflow:questions:{quizID} <json>  EX ttl+jitter
type QuestionCache struct {
	client *redis.Client
	store  app.QuestionStore
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) ListQuestions(ctx context.Context, quizID string) ([]domain.Item, error) {
	if items, ok := c.lookup(ctx, quizID); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// another caller may have filled it meanwhile
		if items, ok := c.lookup(ctx, quizID); ok {
			return items, nil
		}

		items, err := c.store.ListQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []domain.Item{}
		}

		payload, err := json.Marshal(items)
		if err != nil {
			return nil, errors.Wrapf(err, "encode questions of quiz %s", quizID)
		}
		if err := c.client.Set(ctx, questionsKey(quizID), payload, c.ttlWithJitter()).Err(); err != nil {
			glog.Warningf("cache questions of quiz %s: %v", quizID, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Item), nil
}

func (c *QuestionCache) CreateQuestion(ctx context.Context, question domain.Question, options []domain.Option) (domain.Item, error) {
	item, err := c.store.CreateQuestion(ctx, question, options)
	c.Invalidate(ctx, question.QuizID)
	return item, err
}

func (c *QuestionCache) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	err := c.store.DeleteQuestion(ctx, quizID, questionID)
	c.Invalidate(ctx, quizID)
	return err
}

// Invalidate drops the cached question set of a quiz.
func (c *QuestionCache) Invalidate(ctx context.Context, quizID string) {
	if err := c.client.Del(ctx, questionsKey(quizID)).Err(); err != nil {
		glog.Warningf("invalidate questions of quiz %s: %v", quizID, err)
	}
}

func (c *QuestionCache) lookup(ctx context.Context, quizID string) ([]domain.Item, bool) {
	raw, err := c.client.Get(ctx, questionsKey(quizID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			glog.Warningf("read cached questions of quiz %s: %v", quizID, err)
		}
		return nil, false
	}
	var items []domain.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		glog.Warningf("decode cached questions of quiz %s: %v", quizID, err)
		return nil, false
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, true
}

func questionsKey(quizID string) string {
	return keyPrefix + "questions:" + quizID
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
