package app_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"quizflow/internal/app"
	"quizflow/internal/domain"
	"quizflow/internal/infra/memory"
)

func TestGuardRefusesReturningParticipant(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()

	first := env.open(t, domain.Principal{})
	if err := first.ctrl.SetParticipant(ctx, "Alice"); err != nil {
		t.Fatalf("set participant: %v", err)
	}
	if err := first.ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := first.ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	first.ctrl.Close()

	for i, name := range []string{"alice", "  ALICE ", "Alice"} {
		again := env.open(t, domain.Principal{})
		if err := again.ctrl.SetParticipant(ctx, name); !errors.Is(err, domain.ErrAlreadyCompleted) {
			t.Fatalf("try %d: expected guard on name entry, got %v", i, err)
		}
		if err := again.ctrl.Start(ctx); !errors.Is(err, domain.ErrAlreadyCompleted) {
			t.Fatalf("try %d: expected guard on start, got %v", i, err)
		}
		if again.ctrl.Phase() != app.NotStarted {
			t.Fatalf("try %d: expected not started, got %s", i, again.ctrl.Phase())
		}
		if again.redirects() == 0 {
			t.Fatalf("try %d: expected redirect away", i)
		}
	}

	other := env.open(t, domain.Principal{})
	if err := other.ctrl.SetParticipant(ctx, "Bob"); err != nil {
		t.Fatalf("other name must not be blocked: %v", err)
	}
}

func TestStartPreconditionsAreSilent(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	s := env.open(t, domain.Principal{})

	if err := s.ctrl.Start(ctx); !errors.Is(err, domain.ErrCannotStart) {
		t.Fatalf("expected cannot start without a name, got %v", err)
	}
	_ = s.ctrl.SetParticipant(ctx, " A ")
	if s.ctrl.CanStart() {
		t.Fatalf("one character after trimming must not be enough")
	}
	if err := s.ctrl.Start(ctx); !errors.Is(err, domain.ErrCannotStart) {
		t.Fatalf("expected cannot start, got %v", err)
	}
	if n := len(s.notices()); n != 0 {
		t.Fatalf("validation failures must not notify, got %d notices", n)
	}

	_ = s.ctrl.SetParticipant(ctx, "Al")
	if err := s.ctrl.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.ctrl.AttemptID() != "token-1" {
		t.Fatalf("expected generated token for anonymous participant, got %q", s.ctrl.AttemptID())
	}
	if err := s.ctrl.Start(ctx); !errors.Is(err, domain.ErrCannotStart) {
		t.Fatalf("second start must be refused, got %v", err)
	}
}

func TestAnswersRequireRunningAttempt(t *testing.T) {
	env := newExamEnv()
	s := env.open(t, domain.Principal{})

	if err := s.ctrl.SetOption("q1", "o1", true); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("expected not in progress, got %v", err)
	}
	if err := s.ctrl.Record("q2", domain.BoolAnswer{Value: true}); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("expected not in progress, got %v", err)
	}
}

func TestSubmitIsNoOpOutsideRunningAttempt(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	s := env.open(t, domain.Principal{})

	res, err := s.ctrl.Submit(ctx)
	if res != nil || err != nil {
		t.Fatalf("expected no-op, got %v, %v", res, err)
	}
	if s.ctrl.Phase() != app.NotStarted {
		t.Fatalf("expected not started, got %s", s.ctrl.Phase())
	}

	s.start(t, "Carol")
	if _, err := s.ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err = s.ctrl.Submit(ctx)
	if res != nil || err != nil {
		t.Fatalf("expected second submit to be a no-op, got %v, %v", res, err)
	}
	subs, _ := env.local.ListSubmissions(ctx, "quiz-1")
	if len(subs) != 1 {
		t.Fatalf("expected exactly one local record, got %d", len(subs))
	}
	s.ctrl.Close()
}

func TestAuthenticatedSubmitWritesOneRowPerAnsweredQuestion(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	s := env.open(t, domain.Principal{AccountID: "student-7"})
	s.start(t, "Dana")

	if err := s.ctrl.SetOption("q1", "o1", true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := s.ctrl.Record("q3", domain.TextAnswer{Text: "because"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	res, err := s.ctrl.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer s.ctrl.Close()

	if env.attempts.saved() != 2 {
		t.Fatalf("expected 2 response rows (q2 skipped), got %d", env.attempts.saved())
	}
	rows, _ := env.attempts.ListResponses(ctx, s.ctrl.AttemptID())
	for _, row := range rows {
		if row.Score != nil || row.TimeSpentSeconds != nil {
			t.Fatalf("expected ungraded row, got %+v", row)
		}
	}
	attempts, _ := env.attempts.ListAttempts(ctx, "quiz-1")
	if len(attempts) != 1 || attempts[0].StudentID != "student-7" {
		t.Fatalf("expected server-issued attempt for the account, got %+v", attempts)
	}
	if got := attempts[0].TotalScore; got == nil || *got != res.TotalScore {
		t.Fatalf("expected stored score %d, got %v", res.TotalScore, got)
	}
	if subs, _ := env.local.ListSubmissions(ctx, "quiz-1"); len(subs) != 0 {
		t.Fatalf("authenticated run must not write the local log, got %d", len(subs))
	}
}

func TestAnonymousSubmitAppendsOneLocalRecord(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	s := env.open(t, domain.Principal{})
	s.start(t, "  Eve ")

	_ = s.ctrl.SetOption("q1", "o1", true)
	_ = s.ctrl.Record("q2", domain.BoolAnswer{Value: true})
	_ = s.ctrl.Record("q3", domain.TextAnswer{Text: "hello"})

	env.advance(90 * time.Second)
	if _, err := s.ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer s.ctrl.Close()

	if env.attempts.saved() != 0 {
		t.Fatalf("anonymous run must not write response rows")
	}
	subs, _ := env.local.ListSubmissions(ctx, "quiz-1")
	if len(subs) != 1 {
		t.Fatalf("expected one local record, got %d", len(subs))
	}
	sub := subs[0]
	if sub.StudentName != "Eve" || sub.AttemptID != s.ctrl.AttemptID() {
		t.Fatalf("unexpected record header: %+v", sub)
	}
	if len(sub.Answers) != 3 {
		t.Fatalf("expected full answer map, got %+v", sub.Answers)
	}
	if sub.DurationSeconds != 90 {
		t.Fatalf("expected 90s duration, got %d", sub.DurationSeconds)
	}
	if done, _ := env.local.IsCompleted(ctx, "quiz-1", "eve"); !done {
		t.Fatalf("expected completion guard set")
	}
}

func TestSubmitResultMatchesGrading(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	s := env.open(t, domain.Principal{})
	s.start(t, "Frank")

	_ = s.ctrl.SetOption("q1", "o1", true)
	_ = s.ctrl.Record("q2", domain.BoolAnswer{Value: true})

	res, err := s.ctrl.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer s.ctrl.Close()

	if res.TotalScore != 5 || res.TotalPoints != 20 || res.Percent != 25 || res.Grade != domain.GradeWeak {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s.ctrl.Phase() != app.Submitted || s.ctrl.Result() == nil {
		t.Fatalf("expected submitted phase with result")
	}
	if err := s.ctrl.Record("q2", domain.BoolAnswer{Value: false}); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("expected edits refused after submit, got %v", err)
	}
}

func TestSubmitFailureKeepsAttemptRunning(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	s := env.open(t, domain.Principal{AccountID: "student-1"})
	s.start(t, "Gina")
	_ = s.ctrl.SetOption("q1", "o1", true)
	_ = s.ctrl.Record("q2", domain.BoolAnswer{Value: false})

	env.attempts.failSaveAt(2)
	res, err := s.ctrl.Submit(ctx)
	if err == nil || res != nil {
		t.Fatalf("expected failure, got %v, %v", res, err)
	}
	if s.ctrl.Phase() != app.InProgress {
		t.Fatalf("expected in progress after failure, got %s", s.ctrl.Phase())
	}
	if last := s.lastNotice(); last.Severity != domain.SeverityDestructive {
		t.Fatalf("expected destructive notice, got %+v", last)
	}
	if done, _ := env.local.IsCompleted(ctx, "quiz-1", "gina"); done {
		t.Fatalf("guard must not be set on failure")
	}
	if err := s.ctrl.Record("q2", domain.BoolAnswer{Value: true}); err != nil {
		t.Fatalf("expected answers editable after failure, got %v", err)
	}

	env.attempts.failSaveAt(0)
	if _, err := s.ctrl.Submit(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	defer s.ctrl.Close()
	// first row of the failed try is not rolled back
	if env.attempts.saved() != 3 {
		t.Fatalf("expected 3 rows written in total, got %d", env.attempts.saved())
	}
}

func TestStartFailureNotifiesAndStaysNotStarted(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	env.attempts.startErr = errors.New("db down")
	s := env.open(t, domain.Principal{AccountID: "student-1"})

	_ = s.ctrl.SetParticipant(ctx, "Hank")
	if err := s.ctrl.Start(ctx); err == nil {
		t.Fatalf("expected start failure")
	}
	if s.ctrl.Phase() != app.NotStarted {
		t.Fatalf("expected not started, got %s", s.ctrl.Phase())
	}
	if last := s.lastNotice(); last.Description != "db down" {
		t.Fatalf("expected notice with the underlying message, got %+v", last)
	}

	env.attempts.startErr = nil
	if err := s.ctrl.Start(ctx); err != nil {
		t.Fatalf("retry start: %v", err)
	}
}

func TestCountdownRedirectsAfterSubmit(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	env.cfg = app.ExamConfig{AutoClose: 3 * time.Second, TickInterval: time.Millisecond}
	s := env.open(t, domain.Principal{})
	s.start(t, "Ivy")

	if _, err := s.ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case <-s.redirected:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected auto redirect")
	}
	s.ctrl.Close()

	ticks := s.tickValues()
	if len(ticks) != 2 || ticks[0] != 2 || ticks[1] != 1 {
		t.Fatalf("expected ticks [2 1], got %v", ticks)
	}
}

func TestCloseCancelsPendingRedirect(t *testing.T) {
	ctx := context.Background()
	env := newExamEnv()
	env.cfg = app.ExamConfig{AutoClose: 45 * time.Second, TickInterval: time.Hour}
	s := env.open(t, domain.Principal{})
	s.start(t, "Jack")

	if _, err := s.ctrl.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s.ctrl.Close()
	s.ctrl.Close()

	if s.redirects() != 0 {
		t.Fatalf("expected no redirect after teardown")
	}
}

func TestOpenWithoutQuizIDNotifies(t *testing.T) {
	env := newExamEnv()
	notes := &recordingNotifier{}
	_, _, err := env.service().Open(context.Background(), "", domain.Principal{}, app.Hooks{Notifier: notes})
	if !errors.Is(err, domain.ErrMissingQuizID) {
		t.Fatalf("expected missing quiz id, got %v", err)
	}
	if len(notes.all()) != 1 {
		t.Fatalf("expected one notice, got %d", len(notes.all()))
	}
}

func TestOpenUnknownQuizFails(t *testing.T) {
	env := newExamEnv()
	_, _, err := env.service().Open(context.Background(), "nope", domain.Principal{}, app.Hooks{})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

// --- fixtures ---

type examEnv struct {
	mu       sync.Mutex
	now      time.Time
	tokens   int
	cfg      app.ExamConfig
	quizzes  *memory.QuizStore
	items    *memory.QuestionStore
	attempts *flakyAttempts
	local    *memory.LocalStore
}

func newExamEnv() *examEnv {
	env := &examEnv{
		now:     time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC),
		quizzes: memory.NewQuizStoreWith(domain.Quiz{ID: "quiz-1", OwnerID: "teacher-1", Name: "Numbers", DurationMinutes: 30}),
		items: memory.NewStaticQuestionStore(map[string][]domain.Item{
			"quiz-1": sampleItems(),
		}),
		local: memory.NewLocalStore(),
	}
	env.attempts = &flakyAttempts{AttemptStore: memory.NewAttemptStoreWithClock(env.clock)}
	return env
}

func (e *examEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *examEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func (e *examEnv) service() *app.ExamService {
	return app.NewExamService(e.quizzes, e.items, e.attempts, e.local, e.cfg,
		app.WithClock(e.clock),
		app.WithTokenGenerator(func() string {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.tokens++
			return "token-" + strconv.Itoa(e.tokens)
		}),
	)
}

type session struct {
	ctrl       *app.Controller
	notes      *recordingNotifier
	redirected chan struct{}

	mu          sync.Mutex
	ticks       []int
	redirectCnt int
}

func (e *examEnv) open(t *testing.T, who domain.Principal) *session {
	t.Helper()
	s := &session{notes: &recordingNotifier{}, redirected: make(chan struct{}, 8)}
	ctrl, quiz, err := e.service().Open(context.Background(), "quiz-1", who, app.Hooks{
		Notifier: s.notes,
		OnTick: func(remaining int) {
			s.mu.Lock()
			s.ticks = append(s.ticks, remaining)
			s.mu.Unlock()
		},
		OnRedirect: func() {
			s.mu.Lock()
			s.redirectCnt++
			s.mu.Unlock()
			s.redirected <- struct{}{}
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if quiz.Name != "Numbers" || len(ctrl.Items()) != 3 {
		t.Fatalf("unexpected quiz view: %+v, %d items", quiz, len(ctrl.Items()))
	}
	s.ctrl = ctrl
	return s
}

func (s *session) start(t *testing.T, name string) {
	t.Helper()
	if err := s.ctrl.SetParticipant(context.Background(), name); err != nil {
		t.Fatalf("set participant: %v", err)
	}
	if err := s.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func (s *session) redirects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirectCnt
}

func (s *session) tickValues() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.ticks...)
}

func (s *session) notices() []domain.Notice { return s.notes.all() }

func (s *session) lastNotice() domain.Notice {
	all := s.notes.all()
	if len(all) == 0 {
		return domain.Notice{}
	}
	return all[len(all)-1]
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice domain.Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notice(nil), n.notices...)
}

// flakyAttempts counts response writes and can fail the n-th one.
type flakyAttempts struct {
	*memory.AttemptStore
	mu       sync.Mutex
	saves    int
	failAt   int
	startErr error
}

func (f *flakyAttempts) StartAttempt(ctx context.Context, quizID, studentID string) (domain.Attempt, error) {
	if f.startErr != nil {
		return domain.Attempt{}, f.startErr
	}
	return f.AttemptStore.StartAttempt(ctx, quizID, studentID)
}

func (f *flakyAttempts) SaveResponse(ctx context.Context, resp domain.Response) error {
	f.mu.Lock()
	attempt := f.saves + 1
	fail := f.failAt > 0 && attempt == f.failAt
	if fail {
		f.failAt = 0
	} else {
		f.saves++
	}
	f.mu.Unlock()
	if fail {
		return errors.New("insert failed")
	}
	return f.AttemptStore.SaveResponse(ctx, resp)
}

func (f *flakyAttempts) failSaveAt(n int) {
	f.mu.Lock()
	f.failAt = n
	f.mu.Unlock()
}

func (f *flakyAttempts) saved() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}
