package redis

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"

	"quizflow/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Controllers stay in process; Redis only carries a liveness marker per session
// so operators can see how many exams are open across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Controller
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Controller),
	}
}

func (s *SessionStore) Register(sessionID string, c *app.Controller) {
	s.mu.Lock()
	s.sessions[sessionID] = c
	s.mu.Unlock()
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), sessionKey(sessionID), c.QuizID(), s.ttl).Err(); err != nil {
		glog.Warningf("mark session %s live: %v", sessionID, err)
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[sessionID]
	return c, ok
}

func (s *SessionStore) Remove(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), sessionKey(sessionID)).Err(); err != nil {
		glog.Warningf("clear session %s: %v", sessionID, err)
	}
}

func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	live := s.sessions
	s.sessions = make(map[string]*app.Controller)
	s.mu.Unlock()

	keys := make([]string, 0, len(live))
	for id, c := range live {
		c.Close()
		keys = append(keys, sessionKey(id))
	}
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(context.Background(), keys...).Err(); err != nil {
		glog.Warningf("clear %d session markers: %v", len(keys), err)
	}
}

func sessionKey(sessionID string) string {
	return keyPrefix + "session:" + sessionID
}
