package timeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
)

// GameState is the aggregate root for one game. It owns the timeline
// tree, every conversation, the players and the turn machinery.
//
// Conversations are created atomically with the entity that owns them and
// deleted with it. The meta conversation is created with the game and
// never deleted.
type GameState struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`

	Setup   Setup    `json:"setup"`
	Periods []Period `json:"periods"`
	Events  []Event  `json:"events"`
	Scenes  []Scene  `json:"scenes"`

	Conversations      map[uuid.UUID]*chat.Conversation `json:"conversations"`
	MetaConversationID uuid.UUID                        `json:"meta_conversation_id"`

	Players          []Player   `json:"players"`
	Phase            Phase      `json:"phase"`
	CurrentTurn      int        `json:"current_turn"`
	CurrentSelection *EntityRef `json:"current_selection,omitempty"`

	// ExecutedDirectives records which directive lines have already been
	// applied per assistant message, so reparsing is at-most-once.
	ExecutedDirectives map[uuid.UUID][]string `json:"executed_directives,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGameState creates an empty game in setup phase with its meta
// conversation already in place.
func NewGameState(name string, players []Player) *GameState {
	meta := &chat.Conversation{
		ID:       uuid.New(),
		Messages: make([]chat.Message, 0),
	}
	now := time.Now()
	return &GameState{
		ID:                 uuid.New(),
		Name:               name,
		Periods:            make([]Period, 0),
		Events:             make([]Event, 0),
		Scenes:             make([]Scene, 0),
		Conversations:      map[uuid.UUID]*chat.Conversation{meta.ID: meta},
		MetaConversationID: meta.ID,
		Players:            players,
		Phase:              PhaseSetup,
		ExecutedDirectives: make(map[uuid.UUID][]string),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// MetaConversation returns the game's meta conversation.
func (gs *GameState) MetaConversation() *chat.Conversation {
	return gs.Conversations[gs.MetaConversationID]
}

// CurrentPlayer returns the player whose turn it is, or nil before the
// game has players.
func (gs *GameState) CurrentPlayer() *Player {
	if len(gs.Players) == 0 {
		return nil
	}
	return &gs.Players[gs.CurrentTurn%len(gs.Players)]
}
