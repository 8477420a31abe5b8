// Package poll validates submitted answers and aggregates poll responses.
package poll

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"truefeedback/internal/domain"
	"truefeedback/pkg/errors"
)

// Validate checks submitted answers against the poll's questions and returns the
// normalized answers in question order. It stops at the first violation.
func Validate(questions []domain.Question, answers []domain.AnswerInput) ([]domain.Answer, error) {
	byID := make(map[string]int, len(questions))
	for i, q := range questions {
		byID[q.ID] = i
	}

	// Resolve every answer to its question before looking at payloads
	resolved := make([]*domain.AnswerInput, len(questions))
	for i := range answers {
		a := &answers[i]
		idx, ok := byID[a.QuestionID]
		if !ok {
			return nil, errors.NewNotFoundError(fmt.Sprintf("question not found: %s", a.QuestionID))
		}
		if resolved[idx] != nil {
			return nil, errors.NewValidationError(
				fmt.Sprintf("duplicate answer for question %q", questions[idx].Text),
				map[string]interface{}{"question_id": questions[idx].ID})
		}
		resolved[idx] = a
	}

	// Every answer is matched and unique, so a missing one means a short list
	for i, a := range resolved {
		if a == nil {
			return nil, errors.NewValidationError(
				fmt.Sprintf("an answer is required for question %q", questions[i].Text),
				map[string]interface{}{"question_id": questions[i].ID})
		}
	}

	normalized := make([]domain.Answer, 0, len(questions))
	for i, q := range questions {
		answer, err := validateAnswer(q, resolved[i])
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, answer)
	}

	return normalized, nil
}

func validateAnswer(q domain.Question, a *domain.AnswerInput) (domain.Answer, error) {
	out := domain.Answer{QuestionID: q.ID}

	switch q.Type {
	case domain.QuestionSingle:
		selected, err := decodeSelection(q, a.SelectedOptions)
		if err != nil {
			return out, err
		}
		if len(selected) != 1 {
			return out, questionError(q, "requires exactly one selected option")
		}
		if !q.HasOption(selected[0]) {
			return out, questionError(q, fmt.Sprintf("has no option %q", selected[0]))
		}
		out.SelectedOptions = selected

	case domain.QuestionMultiple:
		selected, err := decodeSelection(q, a.SelectedOptions)
		if err != nil {
			return out, err
		}
		if len(selected) == 0 {
			return out, questionError(q, "requires at least one selected option")
		}
		seen := make(map[string]bool, len(selected))
		for _, opt := range selected {
			if !q.HasOption(opt) {
				return out, questionError(q, fmt.Sprintf("has no option %q", opt))
			}
			if seen[opt] {
				return out, questionError(q, fmt.Sprintf("has option %q selected more than once", opt))
			}
			seen[opt] = true
		}
		out.SelectedOptions = selected

	case domain.QuestionAgree:
		if isAbsent(a.Agreement) {
			return out, questionError(q, "requires an agree or disagree answer")
		}
		var agreement bool
		switch string(bytes.TrimSpace(a.Agreement)) {
		case "true":
			agreement = true
		case "false":
			agreement = false
		default:
			return out, questionError(q, "requires agreement to be true or false")
		}
		out.Agreement = &agreement

	case domain.QuestionRating:
		if isAbsent(a.Rating) {
			return out, questionError(q, "requires a rating")
		}
		var value float64
		if err := json.Unmarshal(a.Rating, &value); err != nil {
			return out, questionError(q, "requires the rating to be a whole number")
		}
		if value != math.Trunc(value) {
			return out, questionError(q, "requires the rating to be a whole number")
		}
		scale := q.Scale()
		if value < 1 || value > float64(scale) {
			return out, questionError(q, fmt.Sprintf("requires a rating between 1 and %d", scale))
		}
		rating := int(value)
		out.Rating = &rating

	default:
		return out, errors.NewInternalError(
			fmt.Sprintf("unknown question type %q for question %s", q.Type, q.ID), nil)
	}

	return out, nil
}

func decodeSelection(q domain.Question, raw json.RawMessage) ([]string, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var selected []string
	if err := json.Unmarshal(raw, &selected); err != nil {
		return nil, questionError(q, "requires selectedOptions to be a list of options")
	}
	return selected, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func questionError(q domain.Question, problem string) *errors.AppError {
	return errors.NewValidationError(
		fmt.Sprintf("Question %q %s", q.Text, problem),
		map[string]interface{}{"question_id": q.ID},
	)
}
