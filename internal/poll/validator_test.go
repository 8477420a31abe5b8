package poll

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truefeedback/internal/domain"
	"truefeedback/pkg/errors"
)

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "Do you like the office?", Type: domain.QuestionSingle, Options: []string{"Yes", "No"}},
		{ID: "q2", Text: "Which perks matter?", Type: domain.QuestionMultiple, Options: []string{"Gym", "Food", "Remote"}},
		{ID: "q3", Text: "Meetings are useful", Type: domain.QuestionAgree},
		{ID: "q4", Text: "Rate your manager", Type: domain.QuestionRating, RatingScale: 5},
	}
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func validAnswers() []domain.AnswerInput {
	return []domain.AnswerInput{
		{QuestionID: "q1", SelectedOptions: raw(`["Yes"]`)},
		{QuestionID: "q2", SelectedOptions: raw(`["Gym","Remote"]`)},
		{QuestionID: "q3", Agreement: raw(`true`)},
		{QuestionID: "q4", Rating: raw(`4`)},
	}
}

func TestValidate_ValidAnswers(t *testing.T) {
	answers, err := Validate(sampleQuestions(), validAnswers())
	require.NoError(t, err)
	require.Len(t, answers, 4)

	assert.Equal(t, []string{"Yes"}, answers[0].SelectedOptions)
	assert.Equal(t, []string{"Gym", "Remote"}, answers[1].SelectedOptions)
	require.NotNil(t, answers[2].Agreement)
	assert.True(t, *answers[2].Agreement)
	require.NotNil(t, answers[3].Rating)
	assert.Equal(t, 4, *answers[3].Rating)
}

func TestValidate_ReturnsQuestionOrder(t *testing.T) {
	in := validAnswers()
	reversed := []domain.AnswerInput{in[3], in[2], in[1], in[0]}

	answers, err := Validate(sampleQuestions(), reversed)
	require.NoError(t, err)

	ids := make([]string, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionID
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q4"}, ids)
}

func TestValidate_StripsExtraneousFields(t *testing.T) {
	in := validAnswers()
	in[0].Rating = raw(`3`)
	in[0].Agreement = raw(`false`)
	in[2].SelectedOptions = raw(`["Yes"]`)
	in[3].Agreement = raw(`true`)

	answers, err := Validate(sampleQuestions(), in)
	require.NoError(t, err)

	assert.Nil(t, answers[0].Rating)
	assert.Nil(t, answers[0].Agreement)
	assert.Nil(t, answers[2].SelectedOptions)
	assert.Nil(t, answers[3].Agreement)
	assert.Nil(t, answers[3].SelectedOptions)
}

func TestValidate_MissingAnswer(t *testing.T) {
	in := validAnswers()[:3]

	_, err := Validate(sampleQuestions(), in)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), `an answer is required for question "Rate your manager"`)
}

func TestValidate_UnknownQuestion(t *testing.T) {
	in := validAnswers()
	in[1].QuestionID = "q99"

	_, err := Validate(sampleQuestions(), in)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "question not found: q99")
}

func TestValidate_DuplicateAnswer(t *testing.T) {
	in := append(validAnswers(), domain.AnswerInput{QuestionID: "q1", SelectedOptions: raw(`["No"]`)})

	_, err := Validate(sampleQuestions(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate answer")
}

func TestValidate_SingleChoice(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		wantErr string
	}{
		{name: "valid option", payload: raw(`["No"]`)},
		{name: "missing selection", payload: nil, wantErr: "exactly one"},
		{name: "null selection", payload: raw(`null`), wantErr: "exactly one"},
		{name: "no options selected", payload: raw(`[]`), wantErr: "exactly one"},
		{name: "two options selected", payload: raw(`["Yes","No"]`), wantErr: "exactly one"},
		{name: "option not offered", payload: raw(`["Maybe"]`), wantErr: `no option "Maybe"`},
		{name: "not a list", payload: raw(`"Yes"`), wantErr: "list of options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validAnswers()
			in[0].SelectedOptions = tt.payload

			_, err := Validate(sampleQuestions(), in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "Do you like the office?")
		})
	}
}

func TestValidate_MultipleChoice(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		wantErr string
	}{
		{name: "single option", payload: raw(`["Food"]`)},
		{name: "all options", payload: raw(`["Gym","Food","Remote"]`)},
		{name: "empty selection", payload: raw(`[]`), wantErr: "at least one"},
		{name: "missing selection", payload: nil, wantErr: "at least one"},
		{name: "unknown option", payload: raw(`["Gym","Pool"]`), wantErr: `no option "Pool"`},
		{name: "repeated option", payload: raw(`["Gym","Gym"]`), wantErr: "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validAnswers()
			in[1].SelectedOptions = tt.payload

			_, err := Validate(sampleQuestions(), in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Agreement(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		want    *bool
		wantErr bool
	}{
		{name: "true", payload: raw(`true`), want: boolPtr(true)},
		{name: "false", payload: raw(`false`), want: boolPtr(false)},
		{name: "missing", payload: nil, wantErr: true},
		{name: "null", payload: raw(`null`), wantErr: true},
		{name: "string true", payload: raw(`"true"`), wantErr: true},
		{name: "number one", payload: raw(`1`), wantErr: true},
		{name: "number zero", payload: raw(`0`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validAnswers()
			in[2].Agreement = tt.payload

			answers, err := Validate(sampleQuestions(), in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "Meetings are useful")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, answers[2].Agreement)
		})
	}
}

func TestValidate_RatingBounds(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
		wantErr bool
	}{
		{name: "zero rejected", payload: raw(`0`), wantErr: true},
		{name: "one accepted", payload: raw(`1`)},
		{name: "scale accepted", payload: raw(`5`)},
		{name: "scale plus one rejected", payload: raw(`6`), wantErr: true},
		{name: "negative rejected", payload: raw(`-2`), wantErr: true},
		{name: "fraction rejected", payload: raw(`3.5`), wantErr: true},
		{name: "string rejected", payload: raw(`"4"`), wantErr: true},
		{name: "boolean rejected", payload: raw(`true`), wantErr: true},
		{name: "missing rejected", payload: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validAnswers()
			in[3].Rating = tt.payload

			_, err := Validate(sampleQuestions(), in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_RatingDefaultScale(t *testing.T) {
	questions := []domain.Question{{ID: "r", Text: "Overall", Type: domain.QuestionRating}}

	_, err := Validate(questions, []domain.AnswerInput{{QuestionID: "r", Rating: raw(`5`)}})
	assert.NoError(t, err)

	_, err = Validate(questions, []domain.AnswerInput{{QuestionID: "r", Rating: raw(`6`)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 5")
}

func TestValidate_CustomScale(t *testing.T) {
	questions := []domain.Question{{ID: "r", Text: "Recommend us", Type: domain.QuestionRating, RatingScale: 10}}

	answers, err := Validate(questions, []domain.AnswerInput{{QuestionID: "r", Rating: raw(`10`)}})
	require.NoError(t, err)
	assert.Equal(t, 10, *answers[0].Rating)
}

func TestValidate_UnknownType(t *testing.T) {
	questions := []domain.Question{{ID: "x", Text: "Free text", Type: "text"}}

	_, err := Validate(questions, []domain.AnswerInput{{QuestionID: "x"}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "unknown question type")
}

func TestValidate_FailsFast(t *testing.T) {
	in := validAnswers()
	in[0].SelectedOptions = raw(`["Maybe"]`)
	in[3].Rating = raw(`9`)

	_, err := Validate(sampleQuestions(), in)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "q1", appErr.Details["question_id"])
	assert.NotContains(t, appErr.Message, "Rate your manager")
}

func boolPtr(b bool) *bool {
	return &b
}
