// Package domain contains core concepts of the clipboard chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event within one room.
// Sequence order inside a room is append order; clocks are informational.
type Message struct {
	ID       uuid.UUID // unique identifier
	Author   string    // username of the sender
	Content  string
	Kind     string // MIME type of the payload, "text/plain" for typed input
	Lang     string // ISO 639-1 code detected at post time, empty if unknown
	PostedAt time.Time
}
