// Package domain contains core concepts of the discussion system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable discussion event.
// A message is appended once and never edited or removed.
type Message struct {
	ID        uuid.UUID `cbor:"id"` // unique identifier
	SenderID  string    `cbor:"sender_id"`
	Content   string    `cbor:"content"`
	CreatedAt time.Time `cbor:"created_at"`
}

func NewMessage(senderID, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		SenderID:  senderID,
		Content:   content,
		CreatedAt: at,
	}
}
