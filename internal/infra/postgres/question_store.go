package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"quizflow/internal/domain"
)

// QuestionStore reads and writes questions and their options.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) ListQuestions(ctx context.Context, quizID string) ([]domain.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, type, content, points, order_no, created_at
		 FROM questions WHERE quiz_id = $1 ORDER BY order_no, created_at`, quizID)
	if err != nil {
		return nil, errors.Wrapf(err, "list questions of quiz %s", quizID)
	}
	items := make([]domain.Item, 0)
	index := make(map[string]int)
	ids := make([]string, 0)
	for rows.Next() {
		var (
			q   domain.Question
			typ string
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &typ, &q.Content, &q.Points, &q.OrderNo, &q.CreatedAt); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan question")
		}
		q.Type = domain.QuestionType(typ)
		index[q.ID] = len(items)
		ids = append(ids, q.ID)
		items = append(items, domain.Item{Question: q, Options: []domain.Option{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "list questions of quiz %s", quizID)
	}
	if len(ids) == 0 {
		return items, nil
	}

	opts, err := s.pool.Query(ctx,
		`SELECT id, question_id, content, is_correct, order_no
		 FROM question_options WHERE question_id = ANY($1) ORDER BY order_no`, ids)
	if err != nil {
		return nil, errors.Wrapf(err, "list options of quiz %s", quizID)
	}
	defer opts.Close()
	for opts.Next() {
		var o domain.Option
		if err := opts.Scan(&o.ID, &o.QuestionID, &o.Content, &o.IsCorrect, &o.OrderNo); err != nil {
			return nil, errors.Wrap(err, "scan option")
		}
		i := index[o.QuestionID]
		items[i].Options = append(items[i].Options, o)
	}
	return items, errors.Wrapf(opts.Err(), "list options of quiz %s", quizID)
}

// CreateQuestion inserts the question and its options in one transaction.
func (s *QuestionStore) CreateQuestion(ctx context.Context, question domain.Question, options []domain.Option) (domain.Item, error) {
	item := domain.Item{Options: make([]domain.Option, 0, len(options))}
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (quiz_id, type, content, points, order_no)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			question.QuizID, string(question.Type), question.Content, question.Points, question.OrderNo,
		).Scan(&question.ID, &question.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert question")
		}
		for _, opt := range options {
			opt.QuestionID = question.ID
			err := tx.QueryRow(ctx,
				`INSERT INTO question_options (question_id, content, is_correct, order_no)
				 VALUES ($1, $2, $3, $4) RETURNING id`,
				opt.QuestionID, opt.Content, opt.IsCorrect, opt.OrderNo,
			).Scan(&opt.ID)
			if err != nil {
				return errors.Wrap(err, "insert option")
			}
			item.Options = append(item.Options, opt)
		}
		return nil
	})
	if err != nil {
		return domain.Item{}, err
	}
	item.Question = question
	return item, nil
}

func (s *QuestionStore) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1 AND quiz_id = $2`, questionID, quizID)
	if err != nil {
		return errors.Wrapf(err, "delete question %s", questionID)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}
