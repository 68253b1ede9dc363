package app

import (
	"sync"

	"quizflow/internal/domain"
)

// AnswerSheet collects the answers of one attempt, keyed by question id.
// The last write for a question wins; no question has to be answered.
type AnswerSheet struct {
	mu      sync.Mutex
	items   map[string]domain.Item
	answers map[string]domain.Answer
	frozen  bool
}

func NewAnswerSheet(items []domain.Item) *AnswerSheet {
	byID := make(map[string]domain.Item, len(items))
	for _, it := range items {
		byID[it.Question.ID] = it
	}
	return &AnswerSheet{
		items:   byID,
		answers: make(map[string]domain.Answer),
	}
}

// Record replaces the answer of a question. The variant must match the question type.
func (s *AnswerSheet) Record(questionID string, answer domain.Answer) error {
	if answer == nil {
		return domain.ErrInvalidAnswer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return domain.ErrAnswersFrozen
	}
	item, ok := s.items[questionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if answer.QuestionType() != item.Question.Type {
		return domain.ErrAnswerTypeMismatch
	}

	if choice, ok := answer.(domain.ChoiceAnswer); ok {
		answer = domain.ChoiceAnswer{OptionIDs: domain.NormalizeOptionIDs(choice.OptionIDs)}
	}
	s.answers[questionID] = answer
	return nil
}

// SetOption adds or removes one option from the current selection of a multiple_choice question.
func (s *AnswerSheet) SetOption(questionID, optionID string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return domain.ErrAnswersFrozen
	}
	item, ok := s.items[questionID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if item.Question.Type != domain.MultipleChoice {
		return domain.ErrAnswerTypeMismatch
	}
	if !item.HasOption(optionID) {
		return domain.ErrOptionNotFound
	}

	var current []string
	if prev, ok := s.answers[questionID].(domain.ChoiceAnswer); ok {
		current = prev.OptionIDs
	}
	next := make([]string, 0, len(current)+1)
	for _, id := range current {
		if id != optionID {
			next = append(next, id)
		}
	}
	if checked {
		next = append(next, optionID)
	}
	s.answers[questionID] = domain.ChoiceAnswer{OptionIDs: next}
	return nil
}

// Snapshot returns a deep copy of the recorded answers.
func (s *AnswerSheet) Snapshot() map[string]domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Freeze blocks further edits and returns the answers as of that moment.
func (s *AnswerSheet) Freeze() map[string]domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
	return s.snapshotLocked()
}

// Unfreeze reopens the sheet after a failed submit.
func (s *AnswerSheet) Unfreeze() {
	s.mu.Lock()
	s.frozen = false
	s.mu.Unlock()
}

func (s *AnswerSheet) snapshotLocked() map[string]domain.Answer {
	out := make(map[string]domain.Answer, len(s.answers))
	for qid, a := range s.answers {
		out[qid] = domain.CloneAnswer(a)
	}
	return out
}
