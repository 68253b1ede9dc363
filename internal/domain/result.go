package domain

// Grade is the word grade derived from a percentage.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeVeryGood  Grade = "very_good"
	GradeGood      Grade = "good"
	GradePass      Grade = "pass"
	GradeWeak      Grade = "weak"
)

// GradeFor maps a percentage onto the five grade buckets. Lower bounds are inclusive.
func GradeFor(percent int) Grade {
	switch {
	case percent >= 90:
		return GradeExcellent
	case percent >= 80:
		return GradeVeryGood
	case percent >= 70:
		return GradeGood
	case percent >= 60:
		return GradePass
	default:
		return GradeWeak
	}
}

// QuestionResult is the grading outcome of one question.
// IsCorrect is nil for question types that need manual grading.
type QuestionResult struct {
	QuestionID        string       `json:"id"`
	OrderNo           int          `json:"orderNo"`
	Type              QuestionType `json:"type"`
	Points            int          `json:"points"`
	Awarded           int          `json:"awarded"`
	IsCorrect         *bool        `json:"isCorrect"`
	CorrectOptionIDs  []string     `json:"correctOptionIds"`
	SelectedOptionIDs []string     `json:"studentSelectionIds"`
}

// Result is the graded view of a submitted attempt.
type Result struct {
	TotalScore  int              `json:"totalScore"`
	TotalPoints int              `json:"totalPoints"`
	Percent     int              `json:"percent"`
	Grade       Grade            `json:"grade"`
	Questions   []QuestionResult `json:"byQuestion"`
}
