package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizflow/internal/domain"
)

func TestLocalStoreGuard(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewLocalStore(client)
	ctx := context.Background()

	if done, err := store.IsCompleted(ctx, "quiz-1", "alice"); err != nil || done {
		t.Fatalf("expected fresh guard, got %v, %v", done, err)
	}
	if err := store.MarkCompleted(ctx, "quiz-1", "alice"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got, _ := mr.Get("quizflow:completed:quiz-1:alice"); got != "true" {
		t.Fatalf("expected guard key, got %q", got)
	}
	if done, _ := store.IsCompleted(ctx, "quiz-1", "alice"); !done {
		t.Fatalf("expected completed")
	}
	if done, _ := store.IsCompleted(ctx, "quiz-2", "alice"); done {
		t.Fatalf("guard must be scoped to the quiz")
	}
}

func TestLocalStoreSubmissionLogNewestFirst(t *testing.T) {
	_, client := newTestClient(t)
	store := NewLocalStore(client)
	ctx := context.Background()
	yes := true

	first := domain.LocalSubmission{
		AttemptID:   "a1",
		StudentName: "Alice",
		At:          time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC),
		Answers: map[string]domain.AnswerRecord{
			"q1": {SelectedOptionIDs: []string{"o1"}},
			"q2": {TrueFalseAnswer: &yes},
		},
		DurationSeconds: 42,
	}
	second := domain.LocalSubmission{AttemptID: "a2", StudentName: "Bob", Answers: map[string]domain.AnswerRecord{}}
	for _, sub := range []domain.LocalSubmission{first, second} {
		if err := store.AppendSubmission(ctx, "quiz-1", sub); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	subs, err := store.ListSubmissions(ctx, "quiz-1")
	if err != nil || len(subs) != 2 {
		t.Fatalf("list: %d, %v", len(subs), err)
	}
	if subs[0].AttemptID != "a2" || subs[1].AttemptID != "a1" {
		t.Fatalf("expected newest first, got %s, %s", subs[0].AttemptID, subs[1].AttemptID)
	}
	got := subs[1]
	if got.DurationSeconds != 42 || !got.At.Equal(first.At) {
		t.Fatalf("unexpected record: %+v", got)
	}
	answer, err := got.Answers["q2"].Answer()
	if err != nil || answer != (domain.BoolAnswer{Value: true}) {
		t.Fatalf("expected true/false answer, got %v, %v", answer, err)
	}
}

func TestLocalStoreReportsRedisFailure(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewLocalStore(client)
	mr.SetError("boom")

	if _, err := store.IsCompleted(context.Background(), "quiz-1", "alice"); err == nil {
		t.Fatalf("expected error")
	}
	if err := store.MarkCompleted(context.Background(), "quiz-1", "alice"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestQuizStoreFallback(t *testing.T) {
	_, client := newTestClient(t)
	store := NewQuizStore(client)
	ctx := context.Background()

	older, err := store.CreateQuiz(ctx, domain.Quiz{OwnerID: "t1", Name: "Algebra", DurationMinutes: 10, QuestionType: domain.QuizMixed})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateQuiz(ctx, domain.Quiz{OwnerID: "t1", Name: "Geometry", DurationMinutes: 10, QuestionType: domain.QuizEssay}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateQuiz(ctx, domain.Quiz{OwnerID: "t2", Name: "History", DurationMinutes: 10, QuestionType: domain.QuizEssay}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := store.ListQuizzes(ctx, "t1")
	if err != nil || len(mine) != 2 || mine[0].Name != "Geometry" {
		t.Fatalf("expected t1 quizzes newest first, got %+v, %v", mine, err)
	}
	got, err := store.GetQuiz(ctx, older.ID)
	if err != nil || got.Name != "Algebra" {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if _, err := store.GetQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
