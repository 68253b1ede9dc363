package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"quizflow/internal/domain"
)

// Phase of an exam session. Transitions only move forward.
type Phase int

const (
	NotStarted Phase = iota
	// InProgress accepts answers until submit succeeds.
	InProgress
	// Submitted is terminal; the countdown to redirect is running.
	Submitted
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// Controller drives one participant through a quiz: name entry, start, answering, submit.
type Controller struct {
	svc       *ExamService
	quizID    string
	principal domain.Principal
	items     []domain.Item
	hooks     Hooks
	sheet     *AnswerSheet

	mu         sync.Mutex
	phase      Phase
	name       string
	attemptID  string
	startedAt  time.Time
	starting   bool
	submitting bool
	result     *domain.Result
	countdown  *Countdown
	closed     bool
}

func newController(svc *ExamService, quizID string, who domain.Principal, items []domain.Item, hooks Hooks) *Controller {
	return &Controller{
		svc:       svc,
		quizID:    quizID,
		principal: who,
		items:     items,
		hooks:     hooks,
		sheet:     NewAnswerSheet(items),
	}
}

// GuardName is the completion guard form of a participant name.
func GuardName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Controller) QuizID() string { return c.quizID }

// Items carries correctness flags and must stay server side.
func (c *Controller) Items() []domain.Item { return c.items }

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) AttemptID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptID
}

// Result is nil until the attempt is submitted.
func (c *Controller) Result() *domain.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	res := *c.result
	return &res
}

// SetParticipant records the typed name and checks the completion guard right away,
// so a returning participant is turned away before starting.
func (c *Controller) SetParticipant(ctx context.Context, name string) error {
	c.mu.Lock()
	if c.phase != NotStarted || c.starting {
		c.mu.Unlock()
		return domain.ErrCannotStart
	}
	c.name = name
	c.mu.Unlock()

	return c.checkGuard(ctx, name)
}

// CanStart reports whether the name and quiz id satisfy the start preconditions.
func (c *Controller) CanStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canStartLocked()
}

func (c *Controller) canStartLocked() bool {
	return c.quizID != "" && len([]rune(strings.TrimSpace(c.name))) >= c.svc.cfg.MinNameLength
}

// Start moves NotStarted to InProgress. Unmet preconditions are refused without a notice.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != NotStarted || c.starting || !c.canStartLocked() {
		c.mu.Unlock()
		return domain.ErrCannotStart
	}
	c.starting = true
	name := c.name
	c.mu.Unlock()

	attemptID, err := c.begin(ctx, name)

	c.mu.Lock()
	c.starting = false
	if err == nil {
		c.attemptID = attemptID
		c.startedAt = c.svc.now()
		c.phase = InProgress
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	glog.Infof("quiz %s: attempt %s started", c.quizID, attemptID)
	c.notify(ctx, domain.Notice{Title: "Exam started", Description: "Good luck!"})
	return nil
}

func (c *Controller) begin(ctx context.Context, name string) (string, error) {
	if err := c.checkGuard(ctx, name); err != nil {
		return "", err
	}
	if !c.principal.Authenticated() {
		return c.svc.newID(), nil
	}
	attempt, err := c.svc.attempts.StartAttempt(ctx, c.quizID, c.principal.AccountID)
	if err != nil {
		glog.Errorf("quiz %s: start attempt for %s: %v", c.quizID, c.principal.AccountID, err)
		c.notify(ctx, domain.Notice{
			Title:       "Could not start the exam",
			Description: err.Error(),
			Severity:    domain.SeverityDestructive,
		})
		return "", fmt.Errorf("start attempt: %w", err)
	}
	return attempt.ID, nil
}

// Record stores an answer while the attempt is in progress.
func (c *Controller) Record(questionID string, answer domain.Answer) error {
	if c.Phase() != InProgress {
		return domain.ErrNotInProgress
	}
	return c.sheet.Record(questionID, answer)
}

// SetOption toggles one option of a multiple_choice question while the attempt is in progress.
func (c *Controller) SetOption(questionID, optionID string, checked bool) error {
	if c.Phase() != InProgress {
		return domain.ErrNotInProgress
	}
	return c.sheet.SetOption(questionID, optionID, checked)
}

// Answers returns a copy of the answers recorded so far.
func (c *Controller) Answers() map[string]domain.Answer {
	return c.sheet.Snapshot()
}

// Submit grades and persists the attempt and moves it to Submitted.
// Outside of a running attempt, or while another submit is in flight, it does nothing.
// On a persistence failure the phase stays InProgress and rows already written are kept.
func (c *Controller) Submit(ctx context.Context) (*domain.Result, error) {
	c.mu.Lock()
	if c.phase != InProgress || c.attemptID == "" || c.submitting {
		c.mu.Unlock()
		return nil, nil
	}
	c.submitting = true
	attemptID, startedAt, name := c.attemptID, c.startedAt, c.name
	c.mu.Unlock()

	answers := c.sheet.Freeze()
	result := Grade(c.items, answers)
	finishedAt := c.svc.now()
	duration := elapsedSeconds(startedAt, finishedAt)

	if err := c.persist(ctx, attemptID, name, answers, result, finishedAt, duration); err != nil {
		c.sheet.Unfreeze()
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()

		glog.Errorf("quiz %s: submit attempt %s: %v", c.quizID, attemptID, err)
		c.notify(ctx, domain.Notice{
			Title:       "Could not submit",
			Description: err.Error(),
			Severity:    domain.SeverityDestructive,
		})
		return nil, err
	}

	if err := c.svc.local.MarkCompleted(ctx, c.quizID, GuardName(name)); err != nil {
		glog.Warningf("quiz %s: mark %q completed: %v", c.quizID, GuardName(name), err)
	}

	c.mu.Lock()
	c.submitting = false
	c.phase = Submitted
	c.result = &result
	if !c.closed {
		c.countdown = c.startCountdown()
	}
	c.mu.Unlock()

	glog.Infof("quiz %s: attempt %s submitted, score %d/%d", c.quizID, attemptID, result.TotalScore, result.TotalPoints)
	c.notify(ctx, domain.Notice{
		Title:       "Submitted",
		Description: "Your answers were sent and your result is shown.",
		Duration:    4 * time.Second,
	})
	out := result
	return &out, nil
}

func (c *Controller) persist(ctx context.Context, attemptID, name string, answers map[string]domain.Answer, result domain.Result, at time.Time, duration int) error {
	if !c.principal.Authenticated() {
		sub := domain.LocalSubmission{
			AttemptID:       attemptID,
			StudentName:     strings.TrimSpace(name),
			At:              at,
			Answers:         domain.RecordsOf(answers),
			DurationSeconds: duration,
		}
		if err := c.svc.local.AppendSubmission(ctx, c.quizID, sub); err != nil {
			return fmt.Errorf("append local submission: %w", err)
		}
		return nil
	}

	for _, item := range c.items {
		answer, ok := answers[item.Question.ID]
		if !ok {
			continue
		}
		resp := domain.Response{AttemptID: attemptID, QuestionID: item.Question.ID, Answer: answer}
		if err := c.svc.attempts.SaveResponse(ctx, resp); err != nil {
			return fmt.Errorf("save response for question %s: %w", item.Question.ID, err)
		}
	}
	if err := c.svc.attempts.SubmitAttempt(ctx, attemptID, result.TotalScore, duration); err != nil {
		return fmt.Errorf("submit attempt: %w", err)
	}
	return nil
}

// startCountdown must be called with c.mu held.
func (c *Controller) startCountdown() *Countdown {
	total := int(c.svc.cfg.AutoClose / time.Second)
	if total < 1 {
		total = 1
	}
	return StartCountdown(total, c.svc.cfg.TickInterval, c.hooks.OnTick, func() {
		glog.Infof("quiz %s: auto close after submit", c.quizID)
		if c.hooks.OnRedirect != nil {
			c.hooks.OnRedirect()
		}
	})
}

// Close tears the session down and cancels a pending redirect. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cd := c.countdown
	c.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
}

func (c *Controller) checkGuard(ctx context.Context, name string) error {
	completed, err := c.svc.local.IsCompleted(ctx, c.quizID, GuardName(name))
	if err != nil {
		glog.Warningf("quiz %s: completion guard lookup: %v", c.quizID, err)
		return nil
	}
	if !completed {
		return nil
	}
	c.notify(ctx, domain.Notice{
		Title:       "You cannot take this quiz again",
		Description: "Your answers were already submitted.",
		Severity:    domain.SeverityDestructive,
	})
	if c.hooks.OnRedirect != nil {
		c.hooks.OnRedirect()
	}
	return domain.ErrAlreadyCompleted
}

func (c *Controller) notify(ctx context.Context, n domain.Notice) {
	c.hooks.Notifier.Notify(ctx, n)
}

func elapsedSeconds(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	secs := math.Round(to.Sub(from).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}
