package domain

import "fmt"

// Answer is one of ChoiceAnswer, BoolAnswer or TextAnswer.
// The unexported method keeps the set closed.
type Answer interface {
	QuestionType() QuestionType
	isAnswer()
}

// ChoiceAnswer is the set of selected option ids of a multiple_choice question.
type ChoiceAnswer struct {
	OptionIDs []string
}

// BoolAnswer answers a true_false question.
type BoolAnswer struct {
	Value bool
}

// TextAnswer answers an essay question.
type TextAnswer struct {
	Text string
}

func (ChoiceAnswer) QuestionType() QuestionType { return MultipleChoice }
func (BoolAnswer) QuestionType() QuestionType   { return TrueFalse }
func (TextAnswer) QuestionType() QuestionType   { return Essay }

func (ChoiceAnswer) isAnswer() {}
func (BoolAnswer) isAnswer()   {}
func (TextAnswer) isAnswer()   {}

// NormalizeOptionIDs collapses duplicates, keeping first-seen order.
func NormalizeOptionIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CloneAnswer returns a copy that shares no memory with a.
func CloneAnswer(a Answer) Answer {
	if c, ok := a.(ChoiceAnswer); ok {
		ids := make([]string, len(c.OptionIDs))
		copy(ids, c.OptionIDs)
		return ChoiceAnswer{OptionIDs: ids}
	}
	return a
}

// AnswerRecord is the column/JSON shape of an answer: exactly one field is set.
type AnswerRecord struct {
	SelectedOptionIDs []string `json:"selected_option_ids"`
	TrueFalseAnswer   *bool    `json:"true_false_answer,omitempty"`
	TextAnswer        *string  `json:"text_answer,omitempty"`
}

// RecordOf flattens an answer into its storage shape.
func RecordOf(a Answer) AnswerRecord {
	switch v := a.(type) {
	case ChoiceAnswer:
		ids := v.OptionIDs
		if ids == nil {
			ids = []string{}
		}
		return AnswerRecord{SelectedOptionIDs: ids}
	case BoolAnswer:
		b := v.Value
		return AnswerRecord{TrueFalseAnswer: &b}
	case TextAnswer:
		s := v.Text
		return AnswerRecord{TextAnswer: &s}
	}
	return AnswerRecord{}
}

// Answer rebuilds the variant. Records with no field, or more than one, are rejected.
func (r AnswerRecord) Answer() (Answer, error) {
	set := 0
	var a Answer
	if r.SelectedOptionIDs != nil {
		set++
		a = ChoiceAnswer{OptionIDs: NormalizeOptionIDs(r.SelectedOptionIDs)}
	}
	if r.TrueFalseAnswer != nil {
		set++
		a = BoolAnswer{Value: *r.TrueFalseAnswer}
	}
	if r.TextAnswer != nil {
		set++
		a = TextAnswer{Text: *r.TextAnswer}
	}
	if set != 1 {
		return nil, fmt.Errorf("answer record has %d values set: %w", set, ErrInvalidAnswer)
	}
	return a, nil
}

// RecordsOf flattens a whole answer map.
func RecordsOf(answers map[string]Answer) map[string]AnswerRecord {
	out := make(map[string]AnswerRecord, len(answers))
	for qid, a := range answers {
		out[qid] = RecordOf(a)
	}
	return out
}
