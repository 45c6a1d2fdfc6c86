package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is an ordered exchange of messages owned by one user.
// Created lazily on the first message when the caller supplies no id.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one append-only entry in a conversation. Data carries a
// QueryResult snapshot, Intent the classified intent, both optional.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	Role           Role         `json:"role"`
	Content        string       `json:"content"`
	Data           *QueryResult `json:"data,omitempty"`
	Intent         *QueryIntent `json:"intent,omitempty"`
	TokensUsed     int          `json:"tokens_used,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ActionResult is what the executor reports back after a ledger mutation.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
