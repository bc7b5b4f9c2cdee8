package models

import (
	"time"
)

// Role identifies who produced a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage represents one visible turn in a conversation
type ChatMessage struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	Text             string    `json:"text"`
	Timestamp        time.Time `json:"timestamp"`
	RetrievedContext []string  `json:"retrieved_context,omitempty"`
}

// Message is a single prompt turn in the wire format the model API expects
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserProfile represents a learner's profile
type UserProfile struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Level      string    `json:"level"` // beginner, intermediate, advanced
	Goal       string    `json:"goal"`  // travel, business, family, slang
	IsPremium  bool      `json:"is_premium"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// SessionSummary describes a saved chat session
type SessionSummary struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"message_count"`
	SavedAt      time.Time `json:"saved_at"`
}
