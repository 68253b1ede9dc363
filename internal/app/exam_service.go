package app

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quizflow/internal/domain"
)

const (
	defaultMinNameLength = 2
	defaultAutoClose     = 45 * time.Second
)

// ExamConfig tunes the exam-taking workflow.
type ExamConfig struct {
	MinNameLength int
	AutoClose     time.Duration
	// TickInterval is the countdown resolution; one second unless overridden in tests.
	TickInterval time.Duration
}

func (c ExamConfig) withDefaults() ExamConfig {
	if c.MinNameLength <= 0 {
		c.MinNameLength = defaultMinNameLength
	}
	if c.AutoClose <= 0 {
		c.AutoClose = defaultAutoClose
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	return c
}

// ExamOption customises an ExamService.
type ExamOption func(*ExamService)

// WithClock is used by tests for deterministic timestamps and durations.
func WithClock(now func() time.Time) ExamOption {
	return func(s *ExamService) { s.now = now }
}

// WithTokenGenerator replaces the random attempt token source for anonymous participants.
func WithTokenGenerator(newID func() string) ExamOption {
	return func(s *ExamService) { s.newID = newID }
}

// ExamService opens exam sessions for participants following a join link.
type ExamService struct {
	quizzes   QuizStore
	questions QuestionStore
	attempts  AttemptStore
	local     LocalStore
	cfg       ExamConfig
	now       func() time.Time
	newID     func() string
}

func NewExamService(quizzes QuizStore, questions QuestionStore, attempts AttemptStore, local LocalStore, cfg ExamConfig, opts ...ExamOption) *ExamService {
	s := &ExamService{
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		local:     local,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks connect a Controller to whatever hosts it.
// Callbacks run on the controller's goroutines and must not call Controller.Close.
type Hooks struct {
	Notifier Notifier
	// OnTick receives the seconds left before the automatic redirect.
	OnTick func(remaining int)
	// OnRedirect navigates the participant away from the exam view.
	OnRedirect func()
}

// Open loads the quiz and its questions and returns a controller in the NotStarted phase.
// A missing quiz id or a load failure is reported through the notifier.
func (s *ExamService) Open(ctx context.Context, quizID string, who domain.Principal, hooks Hooks) (*Controller, domain.Quiz, error) {
	notify := hooks.Notifier
	if notify == nil {
		notify = nopNotifier{}
	}
	hooks.Notifier = notify

	if quizID == "" {
		notify.Notify(ctx, domain.Notice{
			Title:       "Invalid link",
			Description: "The quiz id is missing from the link.",
			Severity:    domain.SeverityDestructive,
		})
		return nil, domain.Quiz{}, domain.ErrMissingQuizID
	}

	var (
		quiz  domain.Quiz
		items []domain.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.quizzes.GetQuiz(gctx, quizID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.questions.ListQuestions(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		glog.Errorf("load quiz %s: %v", quizID, err)
		notify.Notify(ctx, domain.Notice{
			Title:       "Could not load the quiz",
			Description: err.Error(),
			Severity:    domain.SeverityDestructive,
		})
		return nil, domain.Quiz{}, fmt.Errorf("open exam %s: %w", quizID, err)
	}
	if items == nil {
		items = []domain.Item{}
	}

	return newController(s, quizID, who, items, hooks), quiz, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notice) {}

// SessionRepository tracks live exam sessions (in-memory, Redis-marked, etc)
// so they can be torn down together on shutdown.
type SessionRepository interface {
	Register(sessionID string, c *Controller)
	Get(sessionID string) (*Controller, bool)
	Remove(sessionID string)
	// CloseAll tears down every live session and forgets it.
	CloseAll()
}
