package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizflow/internal/app"
	"quizflow/internal/domain"
)

// QuestionCache keeps question sets in process with a TTL to avoid repeated store hits
// when many participants open the same join link. Writes go through and drop the entry.
type QuestionCache struct {
	store app.QuestionStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedItems
}

type cachedItems struct {
	items     []domain.Item
	expiresAt time.Time
}

func NewQuestionCache(store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedItems),
	}
}

func (c *QuestionCache) ListQuestions(ctx context.Context, quizID string) ([]domain.Item, error) {
	if items, ok := c.lookup(quizID); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if items, ok := c.lookup(quizID); ok {
			return items, nil
		}

		items, err := c.store.ListQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}

		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[quizID] = cachedItems{items: items, expiresAt: expiresAt}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Item), nil
}

func (c *QuestionCache) CreateQuestion(ctx context.Context, question domain.Question, options []domain.Option) (domain.Item, error) {
	item, err := c.store.CreateQuestion(ctx, question, options)
	c.Invalidate(question.QuizID)
	return item, err
}

func (c *QuestionCache) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	err := c.store.DeleteQuestion(ctx, quizID, questionID)
	c.Invalidate(quizID)
	return err
}

// Invalidate drops the cached question set of a quiz.
func (c *QuestionCache) Invalidate(quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.mu.Unlock()
}

func (c *QuestionCache) lookup(quizID string) ([]domain.Item, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.items, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
