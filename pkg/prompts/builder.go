package prompts

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

// DefaultRecentLimit is how many trailing messages of the current
// conversation stay out of the cached prefix.
const DefaultRecentLimit = 10

// Context is the layered prompt handed to an LLM provider. System and
// Cached change rarely and are marked cacheable; Recent changes every
// turn.
type Context struct {
	System string
	Cached string
	Recent []chat.PromptMessage
}

// Messages flattens the context into provider messages, with the
// cacheable layers flagged for a cache breakpoint.
func (c *Context) Messages() []chat.PromptMessage {
	out := make([]chat.PromptMessage, 0, len(c.Recent)+2)
	out = append(out, chat.PromptMessage{Role: chat.RoleSystem, Content: c.System, CacheControl: true})
	out = append(out, chat.PromptMessage{Role: chat.RoleSystem, Content: c.Cached, CacheControl: true})
	out = append(out, c.Recent...)
	return out
}

// Builder constructs the prompt context for one AI turn using a fluent
// interface.
type Builder struct {
	gs           *timeline.GameState
	currentConv  uuid.UUID
	recentLimit  int
	systemPrompt string
	userMessage  string
}

// New creates a builder with default settings.
func New() *Builder {
	return &Builder{
		recentLimit:  DefaultRecentLimit,
		systemPrompt: BaseSystemPrompt,
	}
}

// WithState sets the game state to serialize.
func (b *Builder) WithState(gs *timeline.GameState) *Builder {
	b.gs = gs
	return b
}

// WithCurrentConversation sets the conversation the turn is happening in.
func (b *Builder) WithCurrentConversation(id uuid.UUID) *Builder {
	b.currentConv = id
	return b
}

// WithRecentLimit overrides the uncached message window size.
func (b *Builder) WithRecentLimit(n int) *Builder {
	if n > 0 {
		b.recentLimit = n
	}
	return b
}

// WithUserMessage appends the in-flight user message after the stored
// history. The stored copy of this message is pending and therefore
// excluded from serialization, so it is carried here instead.
func (b *Builder) WithUserMessage(msg string) *Builder {
	b.userMessage = msg
	return b
}

// WithSystemPrompt overrides the persona layer (tests only).
func (b *Builder) WithSystemPrompt(p string) *Builder {
	b.systemPrompt = p
	return b
}

// Build assembles the layered context.
func (b *Builder) Build() (*Context, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("game state is required")
	}
	if b.currentConv == uuid.Nil {
		b.currentConv = b.gs.MetaConversationID
	}

	ctx := &Context{
		System: b.systemPrompt,
		Cached: SerializeState(b.gs, b.currentConv, b.recentLimit),
	}

	conv, ok := b.gs.Conversations[b.currentConv]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", b.currentConv)
	}

	start := 0
	if len(conv.Messages) > b.recentLimit {
		start = len(conv.Messages) - b.recentLimit
	}
	for _, m := range conv.Messages[start:] {
		if m.Pending {
			continue
		}
		ctx.Recent = append(ctx.Recent, chat.PromptMessage{
			Role:    promptRole(m.Role),
			Content: m.Content,
		})
	}
	if b.userMessage != "" {
		ctx.Recent = append(ctx.Recent, chat.PromptMessage{
			Role:    chat.RoleUser,
			Content: b.userMessage,
		})
	}
	return ctx, nil
}

// promptRole maps conversation roles onto the three roles providers
// accept. Error messages travel as system notices.
func promptRole(role string) string {
	switch role {
	case chat.RoleUser, chat.RoleAssistant:
		return role
	default:
		return chat.RoleSystem
	}
}
