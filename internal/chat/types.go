package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. The chat stream only ever holds these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source is a snippet of an indexed document that grounded an assistant
// reply. Stored alongside the message as JSONB.
type Source struct {
	DocumentID uuid.UUID `json:"documentId"`
	Name       string    `json:"name"`
	Snippet    string    `json:"snippet"`
	Similarity float64   `json:"similarity"`
}

// Message is a single chat message.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources"`
	CreatedAt time.Time `json:"createdAt"`
}
