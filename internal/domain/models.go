package domain

import "time"

// QuestionType is the kind of a single question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Essay          QuestionType = "essay"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, Essay:
		return true
	}
	return false
}

// QuizKind is the question mix a teacher declares when creating a quiz.
type QuizKind string

const (
	QuizMultipleChoice QuizKind = "multiple_choice"
	QuizEssay          QuizKind = "essay"
	QuizMixed          QuizKind = "mixed"
)

func (k QuizKind) Valid() bool {
	switch k {
	case QuizMultipleChoice, QuizEssay, QuizMixed:
		return true
	}
	return false
}

// Quiz is the header record a teacher authors.
type Quiz struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
	QuestionType    QuizKind  `json:"questionType"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Question belongs to a quiz and is read-only while an attempt is running.
type Question struct {
	ID        string       `json:"id"`
	QuizID    string       `json:"quizId"`
	Type      QuestionType `json:"type"`
	Content   string       `json:"content"`
	Points    int          `json:"points"`
	OrderNo   int          `json:"orderNo"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Option is a selectable answer of a multiple_choice question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Content    string `json:"content"`
	IsCorrect  bool   `json:"isCorrect"`
	OrderNo    int    `json:"orderNo"`
}

// Item is a question together with its ordered options.
type Item struct {
	Question Question `json:"question"`
	Options  []Option `json:"options"`
}

// CorrectOptionIDs returns the ids of the options flagged correct, in display order.
func (it Item) CorrectOptionIDs() []string {
	ids := make([]string, 0, len(it.Options))
	for _, opt := range it.Options {
		if opt.IsCorrect {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// HasOption reports whether optionID belongs to the question.
func (it Item) HasOption(optionID string) bool {
	for _, opt := range it.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Attempt is one student's pass through a quiz.
type Attempt struct {
	ID              string     `json:"id"`
	QuizID          string     `json:"quizId"`
	StudentID       string     `json:"studentId"`
	StartedAt       time.Time  `json:"startedAt"`
	SubmittedAt     *time.Time `json:"submittedAt"`
	TotalScore      *int       `json:"totalScore"`
	DurationSeconds *int       `json:"durationSeconds"`
}

// Response is a persisted per-question answer of an authenticated attempt.
type Response struct {
	AttemptID        string `json:"attemptId"`
	QuestionID       string `json:"questionId"`
	Answer           Answer `json:"-"`
	Score            *int   `json:"score"`
	TimeSpentSeconds *int   `json:"timeSpentSeconds"`
}

// LocalSubmission is the aggregated record kept for anonymous participants.
type LocalSubmission struct {
	AttemptID       string                  `json:"attempt_id"`
	StudentName     string                  `json:"student_name"`
	At              time.Time               `json:"at"`
	Answers         map[string]AnswerRecord `json:"answers"`
	DurationSeconds int                     `json:"duration_seconds"`
}

// Principal identifies who is acting. An empty AccountID means an anonymous participant.
type Principal struct {
	AccountID string
}

// Authenticated reports whether the principal is a known account.
func (p Principal) Authenticated() bool {
	return p.AccountID != ""
}

// Severity of a notice shown to the participant.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notice is a fire-and-forget toast.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Severity    Severity      `json:"severity,omitempty"`
	Duration    time.Duration `json:"-"`
}
