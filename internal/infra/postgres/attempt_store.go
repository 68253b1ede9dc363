package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"quizflow/internal/domain"
)

// AttemptStore persists attempts and per-question responses of signed-in participants.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) StartAttempt(ctx context.Context, quizID, studentID string) (domain.Attempt, error) {
	a := domain.Attempt{QuizID: quizID, StudentID: studentID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, student_id) VALUES ($1, $2) RETURNING id, started_at`,
		quizID, studentID,
	).Scan(&a.ID, &a.StartedAt)
	if err != nil {
		return domain.Attempt{}, errors.Wrap(err, "insert attempt")
	}
	return a, nil
}

func (s *AttemptStore) SubmitAttempt(ctx context.Context, attemptID string, totalScore, durationSeconds int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quiz_attempts SET submitted_at = now(), total_score = $2, duration_seconds = $3 WHERE id = $1`,
		attemptID, totalScore, durationSeconds)
	if err != nil {
		return errors.Wrapf(err, "submit attempt %s", attemptID)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) SaveResponse(ctx context.Context, resp domain.Response) error {
	rec := domain.RecordOf(resp.Answer)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempt_responses
		   (attempt_id, question_id, selected_option_ids, true_false_answer, text_answer, score, time_spent_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		resp.AttemptID, resp.QuestionID, rec.SelectedOptionIDs, rec.TrueFalseAnswer, rec.TextAnswer, resp.Score, resp.TimeSpentSeconds)
	return errors.Wrapf(err, "insert response for question %s", resp.QuestionID)
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var a domain.Attempt
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, started_at, submitted_at, total_score, duration_seconds
		 FROM quiz_attempts WHERE id = $1`, attemptID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.SubmittedAt, &a.TotalScore, &a.DurationSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, errors.Wrapf(err, "get attempt %s", attemptID)
	}
	return a, nil
}

func (s *AttemptStore) ListAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, student_id, started_at, submitted_at, total_score, duration_seconds
		 FROM quiz_attempts WHERE quiz_id = $1 ORDER BY started_at DESC`, quizID)
	if err != nil {
		return nil, errors.Wrapf(err, "list attempts of quiz %s", quizID)
	}
	defer rows.Close()

	out := make([]domain.Attempt, 0)
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.SubmittedAt, &a.TotalScore, &a.DurationSeconds); err != nil {
			return nil, errors.Wrap(err, "scan attempt")
		}
		out = append(out, a)
	}
	return out, errors.Wrapf(rows.Err(), "list attempts of quiz %s", quizID)
}

func (s *AttemptStore) ListResponses(ctx context.Context, attemptID string) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id, selected_option_ids, true_false_answer, text_answer, score, time_spent_seconds
		 FROM attempt_responses WHERE attempt_id = $1 ORDER BY created_at`, attemptID)
	if err != nil {
		return nil, errors.Wrapf(err, "list responses of attempt %s", attemptID)
	}
	defer rows.Close()

	out := make([]domain.Response, 0)
	for rows.Next() {
		resp := domain.Response{AttemptID: attemptID}
		var rec domain.AnswerRecord
		if err := rows.Scan(&resp.QuestionID, &rec.SelectedOptionIDs, &rec.TrueFalseAnswer, &rec.TextAnswer, &resp.Score, &resp.TimeSpentSeconds); err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		answer, err := rec.Answer()
		if err != nil {
			return nil, errors.Wrapf(err, "response for question %s", resp.QuestionID)
		}
		resp.Answer = answer
		out = append(out, resp)
	}
	return out, errors.Wrapf(rows.Err(), "list responses of attempt %s", attemptID)
}
