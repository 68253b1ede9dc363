package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"quizflow/internal/domain"
)

// QuizStore reads and writes quiz headers in the quizzes table.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

const quizColumns = `id, owner_id, name, description, duration_minutes, question_type, created_at`

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_id, name, description, duration_minutes, question_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		quiz.OwnerID, quiz.Name, quiz.Description, quiz.DurationMinutes, string(quiz.QuestionType),
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		return domain.Quiz{}, errors.Wrap(err, "insert quiz")
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list quizzes")
	}
	defer rows.Close()

	out := make([]domain.Quiz, 0)
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, errors.Wrap(rows.Err(), "list quizzes")
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	q, err := scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, quizID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, err
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		q    domain.Quiz
		kind string
	)
	if err := row.Scan(&q.ID, &q.OwnerID, &q.Name, &q.Description, &q.DurationMinutes, &kind, &q.CreatedAt); err != nil {
		return domain.Quiz{}, errors.Wrap(err, "scan quiz")
	}
	q.QuestionType = domain.QuizKind(kind)
	return q, nil
}
