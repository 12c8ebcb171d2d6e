// Package chat holds the conversation model: messages, citations, and the
// streaming consumer that applies model output to them.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the model.
	RoleAssistant Role = "assistant"
)

// Citation is a web source grounding part of a reply. Identity is the URI.
type Citation struct {
	URI   string
	Title string
}

// Message is a single conversation turn. Text grows append-only while a
// reply is streaming and is frozen once the stream settles.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Citations []Citation
	Timestamp time.Time
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}
