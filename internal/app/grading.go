package app

import (
	"math"

	"quizflow/internal/domain"
)

// Grade scores a snapshot of answers against the quiz items.
// Only multiple_choice questions are auto-graded; the other types
// report a nil IsCorrect and award nothing.
func Grade(items []domain.Item, answers map[string]domain.Answer) domain.Result {
	result := domain.Result{Questions: make([]domain.QuestionResult, 0, len(items))}

	for _, item := range items {
		q := item.Question
		qr := domain.QuestionResult{
			QuestionID:        q.ID,
			OrderNo:           q.OrderNo,
			Type:              q.Type,
			Points:            q.Points,
			CorrectOptionIDs:  []string{},
			SelectedOptionIDs: selectedOptions(answers[q.ID]),
		}
		result.TotalPoints += q.Points

		if q.Type == domain.MultipleChoice {
			qr.CorrectOptionIDs = item.CorrectOptionIDs()
			correct := sameSet(qr.SelectedOptionIDs, qr.CorrectOptionIDs)
			qr.IsCorrect = &correct
			if correct {
				qr.Awarded = q.Points
			}
		}
		result.TotalScore += qr.Awarded
		result.Questions = append(result.Questions, qr)
	}

	result.Percent = Percent(result.TotalScore, result.TotalPoints)
	result.Grade = domain.GradeFor(result.Percent)
	return result
}

// Percent rounds half up and treats an empty quiz as 0%.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(score)*100/float64(total) + 0.5))
}

func selectedOptions(a domain.Answer) []string {
	choice, ok := a.(domain.ChoiceAnswer)
	if !ok {
		return []string{}
	}
	return domain.NormalizeOptionIDs(choice.OptionIDs)
}

// sameSet expects both slices to be free of duplicates.
func sameSet(selected, correct []string) bool {
	if len(selected) != len(correct) {
		return false
	}
	want := make(map[string]struct{}, len(correct))
	for _, id := range correct {
		want[id] = struct{}{}
	}
	for _, id := range selected {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}
