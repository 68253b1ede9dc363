package memory

import (
	"context"
	"testing"

	"quizflow/internal/app"
	"quizflow/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	ctrl := openController(t)

	store.Register("s1", ctrl)
	if got, ok := store.Get("s1"); !ok || got != ctrl {
		t.Fatalf("expected session present")
	}

	store.Remove("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreCloseAll(t *testing.T) {
	store := NewSessionStore()
	store.Register("s1", openController(t))
	store.Register("s2", openController(t))

	store.CloseAll()
	if store.Len() != 0 {
		t.Fatalf("expected no live sessions, got %d", store.Len())
	}
}

func openController(t *testing.T) *app.Controller {
	t.Helper()
	quizzes := NewQuizStoreWith(domain.Quiz{ID: "quiz-1", OwnerID: "teacher", Name: "Algebra"})
	svc := app.NewExamService(quizzes, NewQuestionStore(), NewAttemptStore(), NewLocalStore(), app.ExamConfig{})
	ctrl, _, err := svc.Open(context.Background(), "quiz-1", domain.Principal{}, app.Hooks{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return ctrl
}
