package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"quizflow/internal/app"
	"quizflow/internal/auth"
	"quizflow/internal/domain"
	"quizflow/internal/infra/memory"
)

type testEnv struct {
	server   *httptest.Server
	verifier *auth.Verifier
	quizzes  *memory.QuizStore
	attempts *memory.AttemptStore
	local    *memory.LocalStore
	sessions *memory.SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		verifier: auth.NewVerifier("test-secret", "quizflow"),
		quizzes:  memory.NewQuizStoreWith(domain.Quiz{ID: "quiz-1", OwnerID: "teacher-1", Name: "Numbers", DurationMinutes: 30, QuestionType: domain.QuizMixed}),
		attempts: memory.NewAttemptStore(),
		local:    memory.NewLocalStore(),
		sessions: memory.NewSessionStore(),
	}
	questions := memory.NewQuestionCache(memory.NewStaticQuestionStore(map[string][]domain.Item{
		"quiz-1": sampleItems(),
	}), time.Minute)

	exams := app.NewExamService(env.quizzes, questions, env.attempts, env.local, app.ExamConfig{
		AutoClose:    2 * time.Second,
		TickInterval: 5 * time.Millisecond,
	})
	quizSvc := app.NewQuizService(env.quizzes, questions, env.attempts, env.local)

	router := NewRouter(NewAPIHandler(quizSvc), NewWSHandler(exams, env.sessions, env.verifier), env.verifier, nil)
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) token(t *testing.T, accountID string) string {
	t.Helper()
	tok, err := e.verifier.Issue(accountID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func sampleItems() []domain.Item {
	return []domain.Item{
		{
			Question: domain.Question{ID: "q1", QuizID: "quiz-1", Type: domain.MultipleChoice, Content: "Pick the even one", Points: 5, OrderNo: 1},
			Options: []domain.Option{
				{ID: "o1", QuestionID: "q1", Content: "2", IsCorrect: true, OrderNo: 1},
				{ID: "o2", QuestionID: "q1", Content: "3", OrderNo: 2},
			},
		},
		{Question: domain.Question{ID: "q2", QuizID: "quiz-1", Type: domain.TrueFalse, Content: "Zero is even", Points: 5, OrderNo: 2}},
	}
}
