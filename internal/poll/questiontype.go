package poll

import (
	"fmt"
	"strings"

	"truefeedback/internal/domain"
)

// legacyTypes maps every spelling seen from older clients to the canonical type.
// SCALE was an alias for rating, never a separate type.
var legacyTypes = map[string]domain.QuestionType{
	"SINGLE":          domain.QuestionSingle,
	"SINGLE_CHOICE":   domain.QuestionSingle,
	"MULTIPLE":        domain.QuestionMultiple,
	"MULTIPLE_CHOICE": domain.QuestionMultiple,
	"AGREE":           domain.QuestionAgree,
	"AGREE_DISAGREE":  domain.QuestionAgree,
	"RATING":          domain.QuestionRating,
	"SCALE":           domain.QuestionRating,
}

// ParseQuestionType normalizes an external question type spelling
func ParseQuestionType(raw string) (domain.QuestionType, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	if t, ok := legacyTypes[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown question type %q", raw)
}

// IsKnownType reports whether t is one of the canonical types
func IsKnownType(t domain.QuestionType) bool {
	switch t {
	case domain.QuestionSingle, domain.QuestionMultiple, domain.QuestionAgree, domain.QuestionRating:
		return true
	}
	return false
}
