package poll

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"truefeedback/internal/domain"
	"truefeedback/pkg/errors"
)

// Limits for poll definitions
const (
	MaxQuestions      = 50
	MaxOptions        = 20
	MaxQuestionLength = 500
	MaxOptionLength   = 200
	MinRatingScale    = 2
	MaxRatingScale    = 10
)

// ValidateQuestions checks the questions of a new poll and returns a normalized copy:
// canonical types, trimmed text, generated IDs where missing and default rating scales.
func ValidateQuestions(questions []domain.Question) ([]domain.Question, error) {
	if len(questions) == 0 {
		return nil, errors.NewValidationError("a poll needs at least one question", nil)
	}
	if len(questions) > MaxQuestions {
		return nil, errors.NewValidationError(
			fmt.Sprintf("a poll can have at most %d questions", MaxQuestions), nil)
	}

	out := make([]domain.Question, 0, len(questions))
	ids := make(map[string]bool, len(questions))

	for i, in := range questions {
		position := i + 1

		q := domain.Question{
			ID:   strings.TrimSpace(in.ID),
			Text: strings.TrimSpace(in.Text),
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if ids[q.ID] {
			return nil, errors.NewValidationError(
				fmt.Sprintf("question %d reuses id %q", position, q.ID), nil)
		}
		ids[q.ID] = true

		if q.Text == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("question %d has no text", position), nil)
		}
		if len([]rune(q.Text)) > MaxQuestionLength {
			return nil, errors.NewValidationError(
				fmt.Sprintf("question %d is longer than %d characters", position, MaxQuestionLength), nil)
		}

		t, err := ParseQuestionType(string(in.Type))
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("question %d: %v", position, err), nil)
		}
		q.Type = t

		switch t {
		case domain.QuestionSingle, domain.QuestionMultiple:
			options, err := normalizeOptions(position, in.Options)
			if err != nil {
				return nil, err
			}
			q.Options = options
		case domain.QuestionRating:
			scale := in.RatingScale
			if scale == 0 {
				scale = domain.DefaultRatingScale
			}
			if scale < MinRatingScale || scale > MaxRatingScale {
				return nil, errors.NewValidationError(
					fmt.Sprintf("question %d: rating scale must be between %d and %d",
						position, MinRatingScale, MaxRatingScale), nil)
			}
			q.RatingScale = scale
		}

		out = append(out, q)
	}

	return out, nil
}

func normalizeOptions(position int, options []string) ([]string, error) {
	if len(options) > MaxOptions {
		return nil, errors.NewValidationError(
			fmt.Sprintf("question %d can have at most %d options", position, MaxOptions), nil)
	}

	out := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, raw := range options {
		opt := strings.TrimSpace(raw)
		if opt == "" {
			return nil, errors.NewValidationError(
				fmt.Sprintf("question %d has an empty option", position), nil)
		}
		if len([]rune(opt)) > MaxOptionLength {
			return nil, errors.NewValidationError(
				fmt.Sprintf("question %d has an option longer than %d characters", position, MaxOptionLength), nil)
		}
		if seen[opt] {
			return nil, errors.NewValidationError(
				fmt.Sprintf("question %d lists option %q twice", position, opt), nil)
		}
		seen[opt] = true
		out = append(out, opt)
	}

	if len(out) < 2 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("question %d needs at least 2 options", position), nil)
	}
	return out, nil
}
