package http

import (
	"encoding/json"

	"quizflow/internal/app"
	"quizflow/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type namePayload struct {
	Name string `json:"name"`
}

// answerPayload carries exactly one of the three answer shapes.
type answerPayload struct {
	QuestionID string   `json:"questionId"`
	OptionIDs  []string `json:"optionIds"`
	Value      *bool    `json:"value"`
	Text       *string  `json:"text"`
}

func (p answerPayload) answer() (domain.Answer, error) {
	return domain.AnswerRecord{
		SelectedOptionIDs: p.OptionIDs,
		TrueFalseAnswer:   p.Value,
		TextAnswer:        p.Text,
	}.Answer()
}

type togglePayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
	Checked    bool   `json:"checked"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type toastPayload struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Severity    domain.Severity `json:"severity"`
	DurationMS  int64           `json:"durationMs,omitempty"`
}

type countdownPayload struct {
	Remaining int `json:"remaining"`
}

type redirectPayload struct {
	To string `json:"to"`
}

type statePayload struct {
	Phase     string                         `json:"phase"`
	AttemptID string                         `json:"attemptId,omitempty"`
	CanStart  bool                           `json:"canStart"`
	Answers   map[string]domain.AnswerRecord `json:"answers"`
}

// quizView is what a participant sees: no correctness flags.
type quizView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     *string        `json:"description,omitempty"`
	DurationMinutes int            `json:"durationMinutes"`
	Questions       []questionView `json:"questions"`
}

type questionView struct {
	ID      string              `json:"id"`
	Type    domain.QuestionType `json:"type"`
	Content string              `json:"content"`
	Points  int                 `json:"points"`
	OrderNo int                 `json:"orderNo"`
	Options []optionView        `json:"options"`
}

type optionView struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	OrderNo int    `json:"orderNo"`
}

func newQuizView(quiz domain.Quiz, items []domain.Item) quizView {
	view := quizView{
		ID:              quiz.ID,
		Name:            quiz.Name,
		Description:     quiz.Description,
		DurationMinutes: quiz.DurationMinutes,
		Questions:       make([]questionView, 0, len(items)),
	}
	for _, it := range items {
		q := questionView{
			ID:      it.Question.ID,
			Type:    it.Question.Type,
			Content: it.Question.Content,
			Points:  it.Question.Points,
			OrderNo: it.Question.OrderNo,
			Options: make([]optionView, 0, len(it.Options)),
		}
		for _, opt := range it.Options {
			q.Options = append(q.Options, optionView{ID: opt.ID, Content: opt.Content, OrderNo: opt.OrderNo})
		}
		view.Questions = append(view.Questions, q)
	}
	return view
}

func newState(c *app.Controller) statePayload {
	return statePayload{
		Phase:     c.Phase().String(),
		AttemptID: c.AttemptID(),
		CanStart:  c.CanStart(),
		Answers:   domain.RecordsOf(c.Answers()),
	}
}

// responseView exposes a stored response with its answer flattened.
type responseView struct {
	domain.AnswerRecord
	AttemptID        string `json:"attemptId"`
	QuestionID       string `json:"questionId"`
	Score            *int   `json:"score"`
	TimeSpentSeconds *int   `json:"timeSpentSeconds"`
}

func newResponseViews(rows []domain.Response) []responseView {
	out := make([]responseView, 0, len(rows))
	for _, r := range rows {
		out = append(out, responseView{
			AttemptID:        r.AttemptID,
			QuestionID:       r.QuestionID,
			AnswerRecord:     domain.RecordOf(r.Answer),
			Score:            r.Score,
			TimeSpentSeconds: r.TimeSpentSeconds,
		})
	}
	return out
}
