package domain

import (
	"encoding/json"
	"time"
)

// QuestionType is the canonical question type stored with a poll
type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionAgree    QuestionType = "agree"
	QuestionRating   QuestionType = "rating"
)

// DefaultRatingScale is used when a rating question does not declare a scale
const DefaultRatingScale = 5

// Question represents a single poll question. Questions never change after the poll is created.
type Question struct {
	ID          string       `json:"id" bson:"id"`
	Text        string       `json:"text" bson:"text"`
	Type        QuestionType `json:"type" bson:"type"`
	Options     []string     `json:"options,omitempty" bson:"options,omitempty"`
	RatingScale int          `json:"ratingScale,omitempty" bson:"rating_scale,omitempty"`
}

// Scale returns the effective rating scale of the question
func (q Question) Scale() int {
	if q.RatingScale > 0 {
		return q.RatingScale
	}
	return DefaultRatingScale
}

// HasOption reports whether option is one of the question's options
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Answer is a validated answer. Only the field matching the question type is set.
type Answer struct {
	QuestionID      string   `json:"questionId" bson:"question_id"`
	SelectedOptions []string `json:"selectedOptions,omitempty" bson:"selected_options,omitempty"`
	Agreement       *bool    `json:"agreement,omitempty" bson:"agreement,omitempty"`
	Rating          *int     `json:"rating,omitempty" bson:"rating,omitempty"`
}

// AnswerInput is an answer as submitted over the wire. Payload fields are kept raw so that
// type mismatches (e.g. "true" instead of true) can be reported per question.
type AnswerInput struct {
	QuestionID      string          `json:"questionId"`
	SelectedOptions json.RawMessage `json:"selectedOptions,omitempty"`
	Agreement       json.RawMessage `json:"agreement,omitempty"`
	Rating          json.RawMessage `json:"rating,omitempty"`
}

// Response is one anonymous submission to a poll
type Response struct {
	Answers     []Answer  `json:"answers" bson:"answers"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submitted_at"`
}

// Poll is a poll document with its embedded responses
type Poll struct {
	ID            string     `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title"`
	Description   string     `json:"description,omitempty" bson:"description,omitempty"`
	Questions     []Question `json:"questions" bson:"questions"`
	Responses     []Response `json:"responses,omitempty" bson:"responses"`
	Slug          string     `json:"slug" bson:"slug"`
	CreatedBy     string     `json:"createdBy" bson:"created_by"`
	Organization  string     `json:"organization,omitempty" bson:"organization,omitempty"`
	ResponseCount int        `json:"totalResponses" bson:"response_count"`
	CreatedAt     time.Time  `json:"createdAt" bson:"created_at"`
}

// QuestionStats holds the aggregated results for one question
type QuestionStats struct {
	QuestionText   string         `json:"questionText"`
	Type           QuestionType   `json:"type"`
	TotalResponses int            `json:"totalResponses"`
	Data           map[string]int `json:"data"`
	AverageRating  *float64       `json:"averageRating,omitempty"`
}

// Analytics maps question IDs to their statistics
type Analytics map[string]QuestionStats

// CreatePollRequest represents a poll creation request
type CreatePollRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Organization string     `json:"organization"`
	Questions    []Question `json:"questions"`
}

// SubmitResponseRequest represents an anonymous poll submission
type SubmitResponseRequest struct {
	Answers []AnswerInput `json:"answers"`
}

// SubmitResponseResult is returned after a successful submission
type SubmitResponseResult struct {
	Success        bool `json:"success"`
	TotalResponses int  `json:"totalResponses"`
}

// PollSummary is the owner's list view of a poll
type PollSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Organization   string    `json:"organization,omitempty"`
	TotalResponses int       `json:"totalResponses"`
	CreatedAt      time.Time `json:"createdAt"`
}
