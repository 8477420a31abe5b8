package domain

import "time"

// Profile is the public identity messages are sent to
type Profile struct {
	UserID            string    `json:"-"`
	Slug              string    `json:"slug"`
	DisplayName       string    `json:"displayName"`
	Bio               string    `json:"bio,omitempty"`
	IsOrganization    bool      `json:"isOrganization"`
	AcceptingMessages bool      `json:"acceptingMessages"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UpsertProfileRequest represents a profile create/update request
type UpsertProfileRequest struct {
	Slug              string `json:"slug"`
	DisplayName       string `json:"displayName"`
	Bio               string `json:"bio"`
	IsOrganization    bool   `json:"isOrganization"`
	AcceptingMessages *bool  `json:"acceptingMessages"`
}

// Message is an anonymous feedback message. The sender is never recorded.
type Message struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"-"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SendMessageRequest represents an anonymous message submission
type SendMessageRequest struct {
	Content string `json:"content"`
}
