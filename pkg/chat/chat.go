package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"      // the human player
	RoleAssistant = "assistant" // the AI co-player
	RoleSystem    = "system"    // creation log and engine notices
	RoleError     = "error"     // failures surfaced to the player
)

// LinkTo points a chat message at a timeline entity. It is attached when
// the message is created and is what makes creation-log messages navigable.
type LinkTo struct {
	Type string    `json:"type"` // "period", "event" or "scene"
	ID   uuid.UUID `json:"id"`
}

// Metadata carries optional message annotations.
type Metadata struct {
	LinkTo *LinkTo `json:"link_to,omitempty"`
}

// Message is a single message in a conversation.
type Message struct {
	ID         uuid.UUID `json:"id"`
	Role       string    `json:"role"`
	PlayerID   string    `json:"player_id,omitempty"`
	PlayerName string    `json:"player_name,omitempty"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`

	// Pending marks an optimistic message for an in-flight AI call.
	// It is reconciled or removed when the call settles.
	Pending bool `json:"pending,omitempty"`

	// RawContent preserves the unparsed AI response on assistant
	// messages, so directives can be reparsed later.
	RawContent string `json:"raw_content,omitempty"`

	Metadata *Metadata `json:"metadata,omitempty"`
}

// Conversation is an ordered message thread. Every period, event and
// scene owns exactly one, plus the single meta conversation.
type Conversation struct {
	ID       uuid.UUID `json:"id"`
	Messages []Message `json:"messages"`
}

// Last returns the most recent message, or nil if the conversation is empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// PromptMessage is the shape sent to LLM providers. CacheControl marks
// the message as part of the stable, cacheable prompt prefix; providers
// that support explicit prompt caching set a cache breakpoint there.
type PromptMessage struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	CacheControl bool   `json:"-"`
}
